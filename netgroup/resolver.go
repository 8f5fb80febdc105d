package netgroup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Resolver expands netgroups into the flat set of hosts they contain.
type Resolver struct {
	source MapSource
	log    zerolog.Logger
}

func NewResolver(source MapSource, logger zerolog.Logger) *Resolver {
	return &Resolver{source: source, log: logger}
}

// Resolve returns the hosts of name and of every netgroup it references,
// directly or transitively. The map is fetched once per call. A name
// missing from the map resolves to an empty set; a failed fetch returns an
// error wrapping ErrMapUnavailable.
func (r *Resolver) Resolve(ctx context.Context, name string) (sets.Set[string], error) {
	records, err := r.source.Netgroups(ctx)
	if err != nil {
		mapFetchesTotal.WithLabelValues("error").Inc()
		r.log.Error().Err(err).Msg("failed to retrieve netgroup map from directory service")
		r.log.Error().Msg("does 'ypcat netgroup' return a map?")
		return nil, fmt.Errorf("%w: %w", ErrMapUnavailable, err)
	}
	mapFetchesTotal.WithLabelValues("success").Inc()

	x := &expansion{
		records: records,
		hosts:   sets.New[string](),
		active:  sets.New[string](),
		done:    sets.New[string](),
		log:     r.log,
	}
	x.visit(name)

	r.log.Debug().Str("netgroup", name).Int("hosts", x.hosts.Len()).Int("groups", x.done.Len()).Msg("netgroup resolved")
	return x.hosts, nil
}

// expansion is the state of one Resolve call. active holds the groups on
// the current recursion path, done the groups already fully expanded.
type expansion struct {
	records map[string]string
	hosts   sets.Set[string]
	active  sets.Set[string]
	done    sets.Set[string]
	log     zerolog.Logger
}

func (x *expansion) visit(name string) {
	if x.active.Has(name) {
		cyclesTotal.Inc()
		x.log.Warn().Str("netgroup", name).Msg("netgroup cycle detected, skipping re-entry")
		return
	}
	if x.done.Has(name) {
		return
	}

	raw, ok := x.records[name]
	if !ok {
		missingGroupsTotal.Inc()
		x.log.Warn().Str("netgroup", name).Msg("netgroup not found in map, treating as empty")
		x.done.Insert(name)
		return
	}

	x.active.Insert(name)
	rec := ParseRecord(raw)
	x.hosts.Insert(rec.Hosts...)
	for _, group := range rec.Groups {
		x.visit(group)
	}
	x.active.Delete(name)
	x.done.Insert(name)
}

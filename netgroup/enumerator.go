package netgroup

import (
	"context"
	"fmt"
	"sync"

	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/sets"
)

type NetgroupResolver interface {
	Resolve(ctx context.Context, name string) (sets.Set[string], error)
}

type HostLookup interface {
	Resolve(ctx context.Context, name string) []string
}

// Enumerator turns an export restriction into the set of addresses allowed
// to mount the export.
type Enumerator struct {
	resolver    NetgroupResolver
	lookup      HostLookup
	concurrency int
	log         zerolog.Logger
}

// NewEnumerator returns an Enumerator running up to concurrency hostname
// lookups at once. Values below 2 look hosts up sequentially.
func NewEnumerator(resolver NetgroupResolver, lookup HostLookup, concurrency int, logger zerolog.Logger) *Enumerator {
	return &Enumerator{resolver: resolver, lookup: lookup, concurrency: concurrency, log: logger}
}

// Enumerate resolves every netgroup of r to hosts, adds the explicit hosts,
// and resolves each distinct host to its addresses. Only a netgroup map
// failure is returned as an error.
func (e *Enumerator) Enumerate(ctx context.Context, r model.ExportRestriction) (sets.Set[string], error) {
	hosts := sets.New[string]()
	for _, ng := range r.Netgroups {
		members, err := e.resolver.Resolve(ctx, ng)
		if err != nil {
			return nil, fmt.Errorf("resolve netgroup %q: %w", ng, err)
		}
		hosts = hosts.Union(members)
	}
	hosts.Insert(r.Hosts...)

	ips := e.lookupAll(ctx, sets.List(hosts))
	e.log.Debug().Int("netgroups", len(r.Netgroups)).Int("hosts", hosts.Len()).Int("addresses", ips.Len()).Msg("enumerated hosts")
	return ips, nil
}

func (e *Enumerator) lookupAll(ctx context.Context, names []string) sets.Set[string] {
	ips := sets.New[string]()
	if e.concurrency < 2 {
		for _, name := range names {
			ips.Insert(e.lookup.Resolve(ctx, name)...)
		}
		return ips
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, name := range names {
		g.Go(func() error {
			addrs := e.lookup.Resolve(ctx, name)
			mu.Lock()
			ips.Insert(addrs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ips
}

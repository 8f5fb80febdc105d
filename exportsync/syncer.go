package exportsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/cluster"
	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	// ErrMultipleRestrictions aborts the run: exports with more than one
	// restriction list are not supported.
	ErrMultipleRestrictions = errors.New("export has more than one restriction list")

	errNoRestrictions = errors.New("export has no restriction list")
	errEmptyAddresses = errors.New("no addresses resolved, current host restrictions kept")
)

type Cluster interface {
	GetExport(ctx context.Context, exportPath string) (*cluster.Export, error)
	ModifyExport(ctx context.Context, export *cluster.Export) (*cluster.Export, error)
}

type Enumerator interface {
	Enumerate(ctx context.Context, r model.ExportRestriction) (sets.Set[string], error)
}

// Syncer writes the enumerated addresses of each configured export into the
// export's host restriction list. Without commit nothing is written.
type Syncer struct {
	cluster    Cluster
	enum       Enumerator
	commit     bool
	allowEmpty bool
	log        zerolog.Logger
}

func New(c Cluster, enum Enumerator, commit bool, logger zerolog.Logger) *Syncer {
	return &Syncer{cluster: c, enum: enum, commit: commit, log: logger}
}

func (s *Syncer) Commit() bool { return s.commit }

// SetAllowEmpty makes exports whose enumeration yields no addresses get an
// empty host restriction list written. By default such exports are skipped
// and keep their current list.
func (s *Syncer) SetAllowEmpty(allow bool) { s.allowEmpty = allow }

// Sync processes every export in path order. An export that cannot be
// fetched is skipped. A netgroup map failure or an export with several
// restriction lists stops the run and is returned together with the partial
// result.
func (s *Syncer) Sync(ctx context.Context, exports map[string]model.ExportRestriction) (*Result, error) {
	res := &Result{Commit: s.commit, StartedAt: time.Now()}
	defer func() {
		res.FinishedAt = time.Now()
		runDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	}()

	for _, path := range model.SortedPaths(exports) {
		er, export, err := s.plan(ctx, path, exports[path])
		if err != nil {
			exportsTotal.WithLabelValues(er.Status).Inc()
			res.Exports = append(res.Exports, er)
			runsTotal.WithLabelValues("error").Inc()
			return res, err
		}
		if export != nil {
			s.apply(ctx, &er, export)
		}
		exportsTotal.WithLabelValues(er.Status).Inc()
		res.Exports = append(res.Exports, er)
	}

	if !s.commit {
		s.log.Info().Msg("no configuration applied, use --commit to apply changes")
	}

	runsTotal.WithLabelValues("success").Inc()
	lastSuccess.SetToCurrentTime()
	return res, nil
}

// Preview computes the restriction list for one export and the difference
// to what the cluster currently has, without writing anything.
func (s *Syncer) Preview(ctx context.Context, path string, r model.ExportRestriction) (ExportResult, error) {
	er, export, err := s.plan(ctx, path, r)
	if err == nil && export != nil {
		er.Status = StatusUnapplied
	}
	return er, err
}

// plan fetches the export and injects the computed addresses. A nil export
// means the export was skipped; er says why.
func (s *Syncer) plan(ctx context.Context, path string, r model.ExportRestriction) (ExportResult, *cluster.Export, error) {
	er := ExportResult{Path: path}
	logger := s.log.With().Str("export", path).Logger()

	export, err := s.cluster.GetExport(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to retrieve export, skipping")
		return skipped(er, err), nil, nil
	}

	switch n := len(export.Restrictions); {
	case n > 1:
		logger.Error().Int("restrictions", n).Msg("cannot handle exports that have more than one restriction list")
		er.Status = StatusFailed
		er.Error = ErrMultipleRestrictions.Error()
		return er, nil, fmt.Errorf("export %s: %w", path, ErrMultipleRestrictions)
	case n == 0:
		logger.Warn().Msg("export has no restriction list, skipping")
		return skipped(er, errNoRestrictions), nil, nil
	}

	ips, err := s.enum.Enumerate(ctx, r)
	if err != nil {
		er.Status = StatusFailed
		er.Error = err.Error()
		return er, nil, fmt.Errorf("export %s: %w", path, err)
	}
	restrictionHosts.WithLabelValues(path).Set(float64(ips.Len()))

	current := sets.New(export.Restrictions[0].HostRestrictions...)
	if ips.Len() == 0 {
		if !s.allowEmpty {
			logger.Warn().
				Strs("kept_host_restrictions", sets.List(current)).
				Msg("no addresses resolved, keeping current host restrictions (set allow_empty_restrictions to clear them)")
			return skipped(er, errEmptyAddresses), nil, nil
		}
		logger.Warn().Int("removed", current.Len()).Msg("no addresses resolved, clearing host restrictions")
	}

	er.Addresses = sets.List(ips)
	er.Added = sets.List(ips.Difference(current))
	er.Removed = sets.List(current.Difference(ips))
	export.Restrictions[0].HostRestrictions = er.Addresses

	logger.Info().Int("addresses", len(er.Addresses)).Strs("added", er.Added).Strs("removed", er.Removed).Msg("computed host restrictions")
	return er, export, nil
}

func (s *Syncer) apply(ctx context.Context, er *ExportResult, export *cluster.Export) {
	logger := s.log.With().Str("export", er.Path).Logger()

	if !s.commit {
		logger.Debug().Strs("host_restrictions", er.Addresses).Msg("unapplied export configuration")
		er.Status = StatusUnapplied
		return
	}

	logger.Info().Msg("updating export")
	if _, err := s.cluster.ModifyExport(ctx, export); err != nil {
		logger.Error().Err(err).Msg("failed to update export")
		er.Status = StatusFailed
		er.Error = err.Error()
		return
	}
	er.Status = StatusUpdated
}

func skipped(er ExportResult, err error) ExportResult {
	er.Status = StatusSkipped
	er.Error = err.Error()
	return er
}

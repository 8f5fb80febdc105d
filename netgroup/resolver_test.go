package netgroup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"
)

type failingSource struct{ err error }

func (f failingSource) Netgroups(context.Context) (map[string]string, error) { return nil, f.err }

type countingSource struct {
	StaticSource
	calls int
}

func (c *countingSource) Netgroups(ctx context.Context) (map[string]string, error) {
	c.calls++
	return c.StaticSource.Netgroups(ctx)
}

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t))
}

func TestResolve(t *testing.T) {
	t.Run("nested chain", func(t *testing.T) {
		r := NewResolver(StaticSource{
			"n1": "n2 (h1,user1,domain1) (h2,u2,d2) (h3,u3,d3)",
			"n2": "n3 (h4,u4,d4)",
			"n3": "(h5,u5,d5)",
		}, testLogger(t))

		hosts, err := r.Resolve(context.Background(), "n1")
		require.NoError(t, err)
		assert.Equal(t, sets.New("h1", "h2", "h3", "h4", "h5"), hosts)
	})

	t.Run("missing map entry", func(t *testing.T) {
		r := NewResolver(StaticSource{}, testLogger(t))

		hosts, err := r.Resolve(context.Background(), "missing_map")
		require.NoError(t, err)
		assert.Equal(t, 0, hosts.Len())
	})

	t.Run("missing nested group", func(t *testing.T) {
		r := NewResolver(StaticSource{"n1": "typo (h1,,)"}, testLogger(t))

		hosts, err := r.Resolve(context.Background(), "n1")
		require.NoError(t, err)
		assert.Equal(t, sets.New("h1"), hosts)
	})

	t.Run("groups only record", func(t *testing.T) {
		r := NewResolver(StaticSource{
			"all":          "servers workstations",
			"servers":      "(s1,,) (s2,,)",
			"workstations": "(w1,,)",
		}, testLogger(t))

		hosts, err := r.Resolve(context.Background(), "all")
		require.NoError(t, err)
		assert.Equal(t, sets.New("s1", "s2", "w1"), hosts)
	})

	t.Run("duplicate hosts across groups", func(t *testing.T) {
		r := NewResolver(StaticSource{
			"n1": "n2 n3 (h1,,)",
			"n2": "(h1,,) (h2,,)",
			"n3": "(h2,,) n2",
		}, testLogger(t))

		hosts, err := r.Resolve(context.Background(), "n1")
		require.NoError(t, err)
		assert.Equal(t, sets.New("h1", "h2"), hosts)
	})

	t.Run("map fetched once per call", func(t *testing.T) {
		src := &countingSource{StaticSource: StaticSource{
			"n1": "n2 n3",
			"n2": "n3 (h1,,)",
			"n3": "(h2,,)",
		}}
		r := NewResolver(src, testLogger(t))

		_, err := r.Resolve(context.Background(), "n1")
		require.NoError(t, err)
		_, err = r.Resolve(context.Background(), "n2")
		require.NoError(t, err)
		assert.Equal(t, 2, src.calls)
	})

	t.Run("map unavailable", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewResolver(failingSource{err: errors.New("error error!")}, zerolog.New(&buf))

		hosts, err := r.Resolve(context.Background(), "missing_map")
		require.ErrorIs(t, err, ErrMapUnavailable)
		assert.Contains(t, err.Error(), "error error!")
		assert.Nil(t, hosts)
		assert.Contains(t, buf.String(), "ypcat netgroup")
	})
}

func TestResolveCycles(t *testing.T) {
	tests := []struct {
		name    string
		records StaticSource
		root    string
		want    sets.Set[string]
	}{
		{
			name:    "self reference",
			records: StaticSource{"n1": "n1 (h1,,)"},
			root:    "n1",
			want:    sets.New("h1"),
		},
		{
			name: "two group cycle",
			records: StaticSource{
				"a": "b (h1,,)",
				"b": "a (h2,,)",
			},
			root: "a",
			want: sets.New("h1", "h2"),
		},
		{
			name: "long cycle",
			records: StaticSource{
				"a": "b (h1,,)",
				"b": "c (h2,,)",
				"c": "d (h3,,)",
				"d": "a (h4,,)",
			},
			root: "c",
			want: sets.New("h1", "h2", "h3", "h4"),
		},
		{
			name: "cycle without hosts",
			records: StaticSource{
				"a": "b",
				"b": "a",
			},
			root: "a",
			want: sets.New[string](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(cyclesTotal)

			hosts, err := NewResolver(tt.records, testLogger(t)).Resolve(context.Background(), tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hosts)
			assert.Greater(t, testutil.ToFloat64(cyclesTotal), before)
		})
	}
}

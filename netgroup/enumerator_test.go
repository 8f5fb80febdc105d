package netgroup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"
)

type stubResolver map[string]sets.Set[string]

func (s stubResolver) Resolve(_ context.Context, name string) (sets.Set[string], error) {
	if hosts, ok := s[name]; ok {
		return hosts.Clone(), nil
	}
	return sets.New[string](), nil
}

type erroringResolver struct{}

func (erroringResolver) Resolve(context.Context, string) (sets.Set[string], error) {
	return nil, fmt.Errorf("%w: ypcat failed", ErrMapUnavailable)
}

type stubLookup map[string][]string

func (s stubLookup) Resolve(_ context.Context, name string) []string { return s[name] }

func TestEnumerate(t *testing.T) {
	restriction := model.ExportRestriction{
		Hosts:     []string{"linux-1", "linux-2"},
		Netgroups: []string{"workstation"},
	}
	lookup := stubLookup{
		"linux-1": {"1.2.3.4"},
		"linux-2": {"1.2.3.4", "9.8.7.6"},
	}

	t.Run("dedupes across hosts and netgroups", func(t *testing.T) {
		e := NewEnumerator(stubResolver{}, lookup, 1, testLogger(t))

		ips, err := e.Enumerate(context.Background(), restriction)
		require.NoError(t, err)
		assert.Equal(t, sets.New("1.2.3.4", "9.8.7.6"), ips)
	})

	t.Run("netgroup members are looked up", func(t *testing.T) {
		res := stubResolver{"workstation": sets.New("ws-1", "linux-1", "ghost")}
		lk := stubLookup{"ws-1": {"10.0.0.7"}, "linux-1": {"1.2.3.4"}}
		e := NewEnumerator(res, lk, 1, testLogger(t))

		ips, err := e.Enumerate(context.Background(), restriction)
		require.NoError(t, err)
		assert.Equal(t, sets.New("10.0.0.7", "1.2.3.4"), ips)
	})

	t.Run("idempotent", func(t *testing.T) {
		e := NewEnumerator(stubResolver{}, lookup, 1, testLogger(t))

		first, err := e.Enumerate(context.Background(), restriction)
		require.NoError(t, err)
		second, err := e.Enumerate(context.Background(), restriction)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("concurrent lookups match sequential", func(t *testing.T) {
		res := stubResolver{}
		lk := stubLookup{}
		var hosts []string
		want := sets.New[string]()
		for i := range 50 {
			name := fmt.Sprintf("host-%d", i)
			addr := fmt.Sprintf("10.0.%d.%d", i%3, i)
			hosts = append(hosts, name)
			lk[name] = []string{addr, "10.255.255.1"}
			want.Insert(addr, "10.255.255.1")
		}
		r := model.ExportRestriction{Hosts: hosts}

		seq, err := NewEnumerator(res, lk, 1, testLogger(t)).Enumerate(context.Background(), r)
		require.NoError(t, err)
		par, err := NewEnumerator(res, lk, 8, testLogger(t)).Enumerate(context.Background(), r)
		require.NoError(t, err)

		assert.Equal(t, want, seq)
		assert.Equal(t, seq, par)
	})

	t.Run("empty restriction", func(t *testing.T) {
		e := NewEnumerator(stubResolver{}, lookup, 1, testLogger(t))

		ips, err := e.Enumerate(context.Background(), model.ExportRestriction{})
		require.NoError(t, err)
		assert.Equal(t, 0, ips.Len())
	})

	t.Run("map unavailable is fatal", func(t *testing.T) {
		e := NewEnumerator(erroringResolver{}, lookup, 1, testLogger(t))

		_, err := e.Enumerate(context.Background(), restriction)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMapUnavailable))
		assert.Contains(t, err.Error(), `"workstation"`)
	})

	t.Run("with resolver and static source", func(t *testing.T) {
		src := StaticSource{
			"workstation": "desktops (linux-1,,)",
			"desktops":    "(linux-2,,) workstation",
		}
		e := NewEnumerator(NewResolver(src, testLogger(t)), lookup, 1, testLogger(t))

		ips, err := e.Enumerate(context.Background(), model.ExportRestriction{Netgroups: []string{"workstation"}})
		require.NoError(t, err)
		assert.Equal(t, sets.New("1.2.3.4", "9.8.7.6"), ips)
	})
}

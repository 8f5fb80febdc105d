package netgroup

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeResolver answers from a fixed table; unknown names are not found.
type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := f[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestDirectoryLookup(t *testing.T) {
	res := fakeResolver{
		"localhost":  {"127.0.0.1"},
		"multihomed": {"10.0.0.1", "10.0.1.1", "fd00::1", "10.0.0.1"},
		"v6only":     {"fd00::2"},
	}

	t.Run("localhost", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyIPv4, time.Second, testLogger(t))
		assert.Equal(t, []string{"127.0.0.1"}, d.Resolve(context.Background(), "localhost"))
	})

	t.Run("multi-homed ipv4", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyIPv4, 0, testLogger(t))
		assert.Equal(t, []string{"10.0.0.1", "10.0.1.1"}, d.Resolve(context.Background(), "multihomed"))
	})

	t.Run("ipv6 family", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyIPv6, 0, testLogger(t))
		assert.Equal(t, []string{"fd00::1"}, d.Resolve(context.Background(), "multihomed"))
	})

	t.Run("any family", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyAny, 0, testLogger(t))
		assert.Equal(t, []string{"10.0.0.1", "10.0.1.1", "fd00::1"}, d.Resolve(context.Background(), "multihomed"))
	})

	t.Run("no address in family", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyIPv4, 0, testLogger(t))
		assert.Empty(t, d.Resolve(context.Background(), "v6only"))
	})

	t.Run("cidr passes through", func(t *testing.T) {
		d := NewDirectoryLookup(res, model.FamilyIPv4, 0, testLogger(t))
		assert.Equal(t, []string{"10.20.0.0/16"}, d.Resolve(context.Background(), "10.20.0.0/16"))
	})

	t.Run("unresolvable logs warning", func(t *testing.T) {
		var buf bytes.Buffer
		d := NewDirectoryLookup(res, model.FamilyIPv4, 0, zerolog.New(&buf))

		assert.Empty(t, d.Resolve(context.Background(), "notarealname1111"))
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), "notarealname1111")
	})
}

func TestDirectoryLookupSystemResolver(t *testing.T) {
	d := NewDirectoryLookup(nil, model.FamilyIPv4, 2*time.Second, testLogger(t))

	t.Run("literal address", func(t *testing.T) {
		assert.Equal(t, []string{"127.0.0.1"}, d.Resolve(context.Background(), "127.0.0.1"))
	})

	t.Run("bad hostname", func(t *testing.T) {
		// .invalid is reserved and never resolves
		assert.Empty(t, d.Resolve(context.Background(), "notarealname1111.invalid"))
	})
}

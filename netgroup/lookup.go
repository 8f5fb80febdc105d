package netgroup

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/rs/zerolog"
	netutils "k8s.io/utils/net"
)

// HostResolver is the hostname resolution capability, satisfied by *net.Resolver.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DirectoryLookup resolves hostnames to addresses and never fails: an
// unresolvable name is logged and yields no addresses.
type DirectoryLookup struct {
	resolver HostResolver
	family   string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewDirectoryLookup returns a lookup adapter. A nil resolver uses
// net.DefaultResolver, a zero timeout disables the per-lookup deadline.
func NewDirectoryLookup(resolver HostResolver, family string, timeout time.Duration, logger zerolog.Logger) *DirectoryLookup {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if family == "" {
		family = model.FamilyIPv4
	}
	return &DirectoryLookup{resolver: resolver, family: family, timeout: timeout, log: logger}
}

// Resolve returns every address of name in the configured family. CIDR
// entries are returned unchanged. Lookups are not retried.
func (d *DirectoryLookup) Resolve(ctx context.Context, name string) []string {
	if isCIDR(name) {
		hostLookupsTotal.WithLabelValues("cidr").Inc()
		return []string{name}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	addrs, err := d.resolver.LookupHost(ctx, name)
	if err != nil {
		hostLookupsTotal.WithLabelValues("error").Inc()
		d.log.Warn().Err(err).Str("host", name).Msg("failed to resolve")
		return nil
	}

	var out []string
	seen := make(map[string]bool, len(addrs))
	for _, addr := range addrs {
		if seen[addr] || !d.inFamily(addr) {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}

	if len(out) == 0 {
		hostLookupsTotal.WithLabelValues("empty").Inc()
		d.log.Warn().Str("host", name).Str("family", d.family).Int("addresses", len(addrs)).Msg("no addresses in requested family")
		return nil
	}

	hostLookupsTotal.WithLabelValues("success").Inc()
	d.log.Debug().Str("host", name).Strs("addresses", out).Msg("resolved")
	return out
}

func (d *DirectoryLookup) inFamily(addr string) bool {
	switch d.family {
	case model.FamilyIPv4:
		return netutils.IsIPv4String(addr)
	case model.FamilyIPv6:
		return netutils.IsIPv6String(addr)
	default:
		return netutils.IsIPv4String(addr) || netutils.IsIPv6String(addr)
	}
}

func isCIDR(s string) bool {
	if !strings.Contains(s, "/") {
		return false
	}
	_, _, err := netutils.ParseCIDRSloppy(s)
	return err == nil
}

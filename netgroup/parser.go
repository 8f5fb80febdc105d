package netgroup

import "strings"

// Record is a parsed netgroup entry.
type Record struct {
	// Hosts holds the host field of every (host,user,domain) triple.
	Hosts []string
	// Groups holds the bare tokens outside of triples, each naming
	// another netgroup.
	Groups []string
}

// ParseRecord parses a raw record such as
//
//	n2 n3 (h1,u1,d1) (h2,,) n4
//
// in two stages: triples are cut out first, then the residual text is split
// on whitespace into group names. Triples with an empty or "-" host field
// contribute no host. An unterminated triple runs to the end of the record.
func ParseRecord(raw string) Record {
	var rec Record
	var residual strings.Builder

	for rest := raw; rest != ""; {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			residual.WriteString(rest)
			break
		}
		residual.WriteString(rest[:open])
		residual.WriteByte(' ')

		triple := rest[open+1:]
		if end := strings.IndexByte(triple, ')'); end >= 0 {
			rest = triple[end+1:]
			triple = triple[:end]
		} else {
			rest = ""
		}
		if host := tripleHost(triple); host != "" {
			rec.Hosts = append(rec.Hosts, host)
		}
	}

	rec.Groups = strings.Fields(residual.String())
	return rec
}

func tripleHost(triple string) string {
	host, _, _ := strings.Cut(triple, ",")
	host = strings.TrimSpace(host)
	if host == "-" {
		return ""
	}
	return host
}

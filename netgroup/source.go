package netgroup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// ErrMapUnavailable is returned when the netgroup map cannot be fetched at
// all. Without the map no netgroup can be resolved, so callers treat it as
// fatal for the run.
var ErrMapUnavailable = errors.New("netgroup map unavailable")

// MapSource fetches the whole netgroup map: netgroup name -> raw record.
type MapSource interface {
	Netgroups(ctx context.Context) (map[string]string, error)
}

// maxLineSize bounds a single physical line of map output.
const maxLineSize = 1024 * 1024

// StaticSource is an in-memory MapSource.
type StaticSource map[string]string

func (s StaticSource) Netgroups(context.Context) (map[string]string, error) {
	return maps.Clone(s), nil
}

// parseMapLines parses "name member member..." lines as printed by
// `ypcat -k` or found in netgroup(5) files. Blank lines and # comments are
// skipped; a trailing backslash continues the entry on the next line.
// Runs of whitespace in a record collapse to a single space. A read error
// such as an oversized line fails the whole map, since a truncated map would
// make the remaining groups look empty.
func parseMapLines(text string) (map[string]string, error) {
	records := make(map[string]string)

	var entry strings.Builder
	flush := func() {
		line := entry.String()
		entry.Reset()
		if strings.TrimSpace(line) == "" {
			return
		}
		fields := strings.Fields(line)
		records[fields[0]] = strings.Join(fields[1:], " ")
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if cont, ok := strings.CutSuffix(strings.TrimRight(line, " \t"), `\`); ok {
			entry.WriteString(cont)
			entry.WriteByte(' ')
			continue
		}
		entry.WriteString(line)
		flush()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse netgroup map: %w", err)
	}
	flush()
	return records, nil
}

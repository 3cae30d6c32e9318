package conflict

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when comparing update times
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the formats local state and providers emit,
// including unix milliseconds.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// ResolveConflicts applies strategy to conflicts. Unknown strategies are
// handled as manual so nothing is written on a misconfiguration.
func ResolveConflicts(conflicts []SyncConflict, strategy Strategy) Resolution {
	res := Resolution{
		Strategy:          strategy,
		ResolvedData:      map[Field]interface{}{},
		ResolvedConflicts: []ResolvedConflict{},
	}
	if len(conflicts) == 0 {
		return res
	}

	switch strategy {
	case LocalWins:
		for _, c := range conflicts {
			res.resolve(c, WinnerLocal)
		}
	case RemoteWins:
		for _, c := range conflicts {
			res.resolve(c, WinnerRemote)
		}
	case NewestWins:
		for _, c := range conflicts {
			res.resolve(c, newest(c))
		}
	default:
		res.RequiresManualResolution = true
		res.UnresolvedConflicts = append([]SyncConflict(nil), conflicts...)
	}

	return res
}

func (r *Resolution) resolve(c SyncConflict, winner Winner) {
	value := c.LocalValue
	if winner == WinnerRemote {
		value = c.RemoteValue
	}
	r.ResolvedData[c.Field] = value
	r.ResolvedConflicts = append(r.ResolvedConflicts, ResolvedConflict{
		Field:  c.Field,
		Winner: winner,
		Value:  value,
	})
}

// newest picks remote only when both timestamps parse and the remote one is
// strictly later.
func newest(c SyncConflict) Winner {
	localTime, ok := ParseTimestamp(c.LocalTimestamp)
	if !ok {
		return WinnerLocal
	}
	remoteTime, ok := ParseTimestamp(c.RemoteTimestamp)
	if !ok {
		return WinnerLocal
	}
	if remoteTime.After(localTime) {
		return WinnerRemote
	}
	return WinnerLocal
}

// CreateConflictReport renders conflicts and their resolution as markdown.
func CreateConflictReport(conflicts []SyncConflict, resolution Resolution) string {
	var b strings.Builder

	b.WriteString("# Sync Conflict Report\n\n")
	fmt.Fprintf(&b, "- Conflicts: %d\n", len(conflicts))
	fmt.Fprintf(&b, "- Strategy: %s\n", resolution.Strategy)
	if resolution.RequiresManualResolution {
		b.WriteString("- Status: manual resolution required\n")
	}
	b.WriteString("\n")

	if len(conflicts) == 0 {
		b.WriteString("No conflicts detected.\n")
		return b.String()
	}

	b.WriteString("| Field | Local | Remote | Local updated | Remote updated | Resolution |\n")
	b.WriteString("|-------|-------|--------|---------------|----------------|------------|\n")
	for _, c := range conflicts {
		outcome := "unresolved"
		if winner, ok := resolution.Winner(c.Field); ok {
			outcome = string(winner)
		}
		fmt.Fprintf(&b, "| %s | %v | %v | %s | %s | %s |\n",
			c.Field, c.LocalValue, c.RemoteValue,
			orDash(c.LocalTimestamp), orDash(c.RemoteTimestamp), outcome)
	}

	if resolution.RequiresManualResolution {
		b.WriteString("\nEdit the local state or the remote record so the fields agree, then run `adk sync` again.\n")
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

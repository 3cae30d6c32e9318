package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase is one ordered stage of a feature's workflow
type Phase string

const (
	PhasePRD       Phase = "prd"
	PhaseResearch  Phase = "research"
	PhaseTasks     Phase = "tasks"
	PhaseImplement Phase = "implement"
	PhaseQA        Phase = "qa"
	PhaseDocs      Phase = "docs"
)

// Phases lists every known phase in workflow order
var Phases = []Phase{
	PhasePRD,
	PhaseResearch,
	PhaseTasks,
	PhaseImplement,
	PhaseQA,
	PhaseDocs,
}

// phaseAliases maps the spellings found in remote trackers and older state
// files to the canonical phase
var phaseAliases = map[string]Phase{
	"implementation": PhaseImplement,
	"impl":           PhaseImplement,
	"dev":            PhaseImplement,
	"review":         PhaseQA,
	"testing":        PhaseQA,
	"documentation":  PhaseDocs,
	"task":           PhaseTasks,
}

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Index returns the position of p in the workflow, or -1 if unknown
func (p Phase) Index() int {
	for i, known := range Phases {
		if known == p {
			return i
		}
	}
	return -1
}

func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a free-form phase name to a known Phase.
// Matching is case-insensitive and accepts a few common aliases.
func ParsePhase(s string) (Phase, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", fmt.Errorf("phase cannot be empty")
	}

	if p := Phase(normalized); p.Valid() {
		return p, nil
	}
	if p, ok := phaseAliases[normalized]; ok {
		return p, nil
	}

	names := make([]string, len(Phases))
	for i, p := range Phases {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unknown phase %q (valid: %s)", s, strings.Join(names, ", "))
}

// UnmarshalJSON accepts the phase as any known spelling
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*p = ""
		return nil
	}
	parsed, err := ParsePhase(s)
	if err != nil {
		// Keep the raw value; Normalize decides what to do with it
		*p = Phase(s)
		return nil
	}
	*p = parsed
	return nil
}

package backend

import (
	"encoding/json"
	"testing"
)

func TestParsePhase(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Phase
		wantErr bool
	}{
		{"canonical", "qa", PhaseQA, false},
		{"uppercase", "IMPLEMENT", PhaseImplement, false},
		{"surrounding spaces", "  docs ", PhaseDocs, false},
		{"alias implementation", "implementation", PhaseImplement, false},
		{"alias review", "review", PhaseQA, false},
		{"empty", "", "", true},
		{"unknown", "deploy", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePhase(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePhase(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePhase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhaseIndexOrder(t *testing.T) {
	for i, p := range Phases {
		if p.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", p, p.Index(), i)
		}
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}

	if Phase("unknown").Index() != -1 {
		t.Error("unknown phase should have index -1")
	}
	if PhasePRD.Index() >= PhaseDocs.Index() {
		t.Error("prd should come before docs")
	}
}

func TestPhaseUnmarshalJSON(t *testing.T) {
	var doc struct {
		Phase Phase `json:"phase"`
	}

	if err := json.Unmarshal([]byte(`{"phase":"Implementation"}`), &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if doc.Phase != PhaseImplement {
		t.Errorf("Phase = %q, want %q", doc.Phase, PhaseImplement)
	}

	// Unknown values are kept so Normalize can decide
	if err := json.Unmarshal([]byte(`{"phase":"shipping"}`), &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if doc.Phase != "shipping" {
		t.Errorf("Phase = %q, want raw value", doc.Phase)
	}
}

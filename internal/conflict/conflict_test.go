package conflict

import (
	"testing"
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
)

func localAuth(phase backend.Phase, progress int) backend.LocalFeature {
	return backend.LocalFeature{
		Name:        "auth",
		Phase:       phase,
		Progress:    progress,
		LastUpdated: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDetectConflicts_IdenticalSnapshots(t *testing.T) {
	for _, phase := range backend.Phases {
		for _, progress := range []int{0, 42, 100} {
			local := localAuth(phase, progress)
			remote := backend.RemoteFeature{
				ID:       "r1",
				Name:     "auth",
				Phase:    backend.PhasePtr(phase),
				Progress: backend.IntPtr(progress),
			}
			if got := DetectConflicts(local, remote); len(got) != 0 {
				t.Errorf("phase=%s progress=%d: expected no conflicts, got %+v", phase, progress, got)
			}
		}
	}
}

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name   string
		remote backend.RemoteFeature
		want   []Field
	}{
		{
			name:   "remote silent on phase and progress",
			remote: backend.RemoteFeature{Name: "auth"},
			want:   nil,
		},
		{
			name:   "phase differs",
			remote: backend.RemoteFeature{Name: "auth", Phase: backend.PhasePtr(backend.PhaseImplement)},
			want:   []Field{FieldPhase},
		},
		{
			name:   "all fields differ",
			remote: backend.RemoteFeature{Name: "auth-v2", Phase: backend.PhasePtr(backend.PhaseImplement), Progress: backend.IntPtr(60)},
			want:   []Field{FieldPhase, FieldProgress, FieldName},
		},
		{
			name:   "unknown remote phase is ignored",
			remote: backend.RemoteFeature{Name: "auth", Phase: backend.PhasePtr(backend.Phase("shipping"))},
			want:   nil,
		},
		{
			name:   "only name differs",
			remote: backend.RemoteFeature{Name: "Auth"},
			want:   []Field{FieldName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectConflicts(localAuth(backend.PhaseQA, 90), tt.remote)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d conflicts (%+v), want %d", len(got), got, len(tt.want))
			}
			for i, field := range tt.want {
				if got[i].Field != field {
					t.Errorf("conflict[%d].Field = %s, want %s", i, got[i].Field, field)
				}
			}
		})
	}
}

func TestDetectConflicts_CarriesValuesAndTimestamps(t *testing.T) {
	remote := backend.RemoteFeature{
		Name:      "auth",
		Progress:  backend.IntPtr(60),
		UpdatedAt: "2026-03-02T08:00:00Z",
	}
	got := DetectConflicts(localAuth(backend.PhaseQA, 90), remote)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(got))
	}
	c := got[0]
	if c.LocalValue != 90 || c.RemoteValue != 60 {
		t.Errorf("values = %v/%v, want 90/60", c.LocalValue, c.RemoteValue)
	}
	if c.LocalTimestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("LocalTimestamp = %q", c.LocalTimestamp)
	}
	if c.RemoteTimestamp != remote.UpdatedAt {
		t.Errorf("RemoteTimestamp = %q", c.RemoteTimestamp)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"", LocalWins, false},
		{"local-wins", LocalWins, false},
		{"Remote-Wins", RemoteWins, false},
		{" newest-wins ", NewestWins, false},
		{"manual", Manual, false},
		{"server_wins", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

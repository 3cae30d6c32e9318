package backend

import "testing"

func TestClampProgress(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{250, 100},
	}

	for _, tt := range tests {
		if got := ClampProgress(tt.in); got != tt.want {
			t.Errorf("ClampProgress(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLocalFeatureNormalize(t *testing.T) {
	f := LocalFeature{Name: "auth", Phase: "shipping", Progress: 140}
	f.Normalize()

	if f.Progress != 100 {
		t.Errorf("Progress = %d, want 100", f.Progress)
	}
	if f.Phase != PhasePRD {
		t.Errorf("Phase = %q, want %q", f.Phase, PhasePRD)
	}

	f = LocalFeature{Name: "auth", Phase: "REVIEW", Progress: 10}
	f.Normalize()
	if f.Phase != PhaseQA {
		t.Errorf("Phase = %q, want alias resolved to %q", f.Phase, PhaseQA)
	}
}

func TestRemoteFeatureString(t *testing.T) {
	f := RemoteFeature{ID: "r1", Name: "auth"}
	if got := f.String(); got != "auth [r1] phase=- progress=-" {
		t.Errorf("String() = %q", got)
	}

	f.Phase = PhasePtr(PhaseQA)
	f.Progress = IntPtr(90)
	if got := f.String(); got != "auth [r1] phase=qa progress=90%" {
		t.Errorf("String() = %q", got)
	}
}

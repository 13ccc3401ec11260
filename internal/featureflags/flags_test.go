package featureflags

import "testing"

func TestEnabledOr(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"yes", false, true},
		{"ON", false, true},
		{"off", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, tc := range cases {
		t.Setenv("FLAG_LEGACY_ENROLLMENTS", tc.value)
		if got := EnabledOr(LegacyEnrollments, tc.def); got != tc.want {
			t.Errorf("EnabledOr(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}
}

func TestEnabledDefaultsOff(t *testing.T) {
	t.Setenv("FLAG_RECONCILER", "")
	if Enabled(Reconciler) {
		t.Fatalf("expected reconciler flag off by default")
	}
	t.Setenv("FLAG_RECONCILER", "true")
	if !Enabled(Reconciler) {
		t.Fatalf("expected reconciler flag on")
	}
}

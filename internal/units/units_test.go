package units

import "testing"

func TestLabelOf(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"hour", "Stunde"},
		{"piece", "Stück"},
		{"gram", "Gramm"},
		{"pallet", "pallet"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := LabelOf(tt.code); got != tt.want {
				t.Errorf("LabelOf(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestExternalCodeOf(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"hour", "HUR"},
		{"km", "KMT"},
		{"month", "MON"},
		{"Hour", "C62"},
		{"unknown", "C62"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ExternalCodeOf(tt.code); got != tt.want {
				t.Errorf("ExternalCodeOf(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"code", "hour", "HUR"},
		{"code upper case", "HOUR", "HUR"},
		{"label", "Kilogramm", "KGM"},
		{"label lower case with space", "  stück ", "C62"},
		{"german alias", "Stunden", "HUR"},
		{"short alias", "h", "HUR"},
		{"pieces alias", "Stk", "C62"},
		{"meter alias", "m", "MTR"},
		{"gram alias", "g", "GRM"},
		{"days alias", "Tage", "DAY"},
		{"unknown", "Pauschale", "C62"},
		{"empty", "", "C62"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.text); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 9 {
		t.Fatalf("All() returned %d units, want 9", len(all))
	}
	all[0].Label = "changed"
	if LabelOf("hour") != "Stunde" {
		t.Error("mutating All() result changed the catalog")
	}
}

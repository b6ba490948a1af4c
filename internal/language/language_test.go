package language

import "testing"

func TestConversions(t *testing.T) {
	tests := []struct {
		input  string
		iso2   string
		biblio string
		locale string
	}{
		{"fr", "fr", "fre", "fr-FR"},
		{"FRA", "fr", "fre", "fr-FR"},
		{"fre", "fr", "fre", "fr-FR"},
		{"french", "fr", "fre", "fr-FR"},
		{"fr_CA", "fr", "fre", "fr-FR"},
		{"en-US", "en", "eng", "en-US"},
		{"de", "de", "ger", "de-DE"},
		{"nld", "nl", "dut", "nl-NL"},
		{"zh", "zh", "chi", "zh-CN"},
		{"xyz", "", "xyz", ""},
		{"xy", "", "", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.iso2 {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.iso2)
			}
			if got := ToBibliographic(tt.input); got != tt.biblio {
				t.Errorf("ToBibliographic(%q) = %q, want %q", tt.input, got, tt.biblio)
			}
			if got := Locale(tt.input); got != tt.locale {
				t.Errorf("Locale(%q) = %q, want %q", tt.input, got, tt.locale)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"fre": "French",
		"en":  "English",
		"xx":  "XX",
		"  ":  "Unknown",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
	if !Known("Spanish") || Known("klingon") {
		t.Error("Known returned unexpected result")
	}
}

package language

import "strings"

type entry struct {
	iso1   string // ISO 639-1
	term   string // ISO 639-2/T
	biblio string // ISO 639-2/B, used by opensubtitles.org
	name   string
	locale string // default region for TMDB and speech APIs
}

var languages = []entry{
	{"fr", "fra", "fre", "French", "fr-FR"},
	{"en", "eng", "eng", "English", "en-US"},
	{"es", "spa", "spa", "Spanish", "es-ES"},
	{"de", "deu", "ger", "German", "de-DE"},
	{"it", "ita", "ita", "Italian", "it-IT"},
	{"pt", "por", "por", "Portuguese", "pt-PT"},
	{"nl", "nld", "dut", "Dutch", "nl-NL"},
	{"zh", "zho", "chi", "Chinese", "zh-CN"},
	{"ja", "jpn", "jpn", "Japanese", "ja-JP"},
	{"ko", "kor", "kor", "Korean", "ko-KR"},
	{"ru", "rus", "rus", "Russian", "ru-RU"},
	{"ar", "ara", "ara", "Arabic", "ar-SA"},
	{"pl", "pol", "pol", "Polish", "pl-PL"},
	{"sv", "swe", "swe", "Swedish", "sv-SE"},
	{"da", "dan", "dan", "Danish", "da-DK"},
	{"fi", "fin", "fin", "Finnish", "fi-FI"},
	{"no", "nor", "nor", "Norwegian", "nb-NO"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		for _, key := range []string{e.iso1, e.term, e.biblio, strings.ToLower(e.name), strings.ToLower(e.locale)} {
			m[key] = e
		}
	}
	return m
}()

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := index[code]; ok {
		return e
	}
	// "fr_CA", "fr-CA" and similar fall back on the primary subtag.
	if primary, _, ok := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-"); ok {
		return index[primary]
	}
	return nil
}

// Known reports whether code is a recognised language code, name or locale.
func Known(code string) bool {
	return lookup(code) != nil
}

// ToISO2 returns the two letter code, or "" when code is unknown.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.iso1
	}
	return ""
}

// ToBibliographic returns the ISO 639-2/B code ("fre", "ger") used by
// opensubtitles.org. Unknown three letter codes pass through unchanged so
// callers can use languages missing from the table.
func ToBibliographic(code string) string {
	if e := lookup(code); e != nil {
		return e.biblio
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) == 3 {
		return code
	}
	return ""
}

// Locale returns a region qualified tag such as "fr-FR".
func Locale(code string) string {
	if e := lookup(code); e != nil {
		return e.locale
	}
	return ""
}

// DisplayName returns the English name of code, or the upper-cased code when unknown.
func DisplayName(code string) string {
	if e := lookup(code); e != nil {
		return e.name
	}
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

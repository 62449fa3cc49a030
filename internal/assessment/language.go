package assessment

import "strings"

// supportedLanguages is the set of ISO 639-1 codes accepted in a language pair.
var supportedLanguages = map[string]bool{
	"EN": true, "ES": true, "FR": true, "DE": true, "IT": true,
	"PT": true, "RU": true, "ZH": true, "JA": true, "KO": true,
	"AR": true, "HI": true, "TR": true, "PL": true, "NL": true,
	"SV": true, "DA": true, "NO": true, "FI": true, "HE": true,
}

// languageNames maps codes to the display names used in learner-facing text.
var languageNames = map[string]string{
	"EN": "English",
	"ES": "Spanish",
	"FR": "French",
	"DE": "German",
	"IT": "Italian",
	"PT": "Portuguese",
	"TR": "Turkish",
	"AR": "Arabic",
}

// IsSupportedLanguage reports whether code (case-insensitive) is accepted.
func IsSupportedLanguage(code string) bool {
	return supportedLanguages[normalizeCode(code)]
}

// DisplayName returns the English name for code, or fallback when the code
// has no entry in the name table.
func DisplayName(code, fallback string) string {
	if name, ok := languageNames[normalizeCode(code)]; ok {
		return name
	}
	return fallback
}

// LanguagePair is the learner's native language and the language being assessed.
// Codes are stored upper-cased.
type LanguagePair struct {
	Native string `json:"native_language"`
	Target string `json:"target_language"`
}

// NewLanguagePair normalizes and validates both codes.
func NewLanguagePair(native, target string) (LanguagePair, error) {
	p := LanguagePair{Native: normalizeCode(native), Target: normalizeCode(target)}
	if !supportedLanguages[p.Native] {
		return LanguagePair{}, &ValidationError{Field: "native_language", Reason: "unsupported language code " + quote(native)}
	}
	if !supportedLanguages[p.Target] {
		return LanguagePair{}, &ValidationError{Field: "target_language", Reason: "unsupported language code " + quote(target)}
	}
	if p.Native == p.Target {
		return LanguagePair{}, &ValidationError{Field: "target_language", Reason: "native and target languages must be different"}
	}
	return p, nil
}

func (p LanguagePair) String() string { return p.Native + "->" + p.Target }

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func quote(s string) string { return `"` + s + `"` }

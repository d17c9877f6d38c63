// Package language normalizes user-supplied language hints to the ISO
// 639-1 codes WhisperX accepts. Inputs may be tags ("en", "en-US"), full
// names ("english"), or "auto"/empty for autodetection.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Common full-name forms that BCP 47 parsing does not cover.
var byName = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// ToISO2 maps a language hint to a two-letter ISO 639-1 code. Empty input,
// "auto", and unrecognized values map to "", which means no CLI override.
func ToISO2(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" || trimmed == "auto" {
		return ""
	}
	if code, ok := byName[trimmed]; ok {
		return code
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// Package lang maps between BCP-47 language tags and Tesseract traineddata codes.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Tags whose Tesseract code is not the plain ISO 639-3 code.
var special = map[string]string{
	"zh-Hans": "chi_sim",
	"zh-Hant": "chi_tra",
	"zh":      "chi_sim",
	"zh-CN":   "chi_sim",
	"zh-SG":   "chi_sim",
	"zh-TW":   "chi_tra",
	"zh-HK":   "chi_tra",
	"zh-MO":   "chi_tra",
}

// Tesseract codes whose BCP-47 form needs a script subtag
var bcp47Special = map[string]string{
	"chi_sim":      "zh-Hans",
	"chi_tra":      "zh-Hant",
	"chi_sim_vert": "zh-Hans",
	"chi_tra_vert": "zh-Hant",
}

// ToBCP47 converts one language (a Tesseract code like "jpn" or "chi_sim", or
// a BCP-47 tag like "ja-JP") into the tag form cloud services accept: the base
// language, plus a script for Chinese. Returns "" when code is not a language.
func ToBCP47(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, ok := bcp47Special[code]; ok {
		return tag
	}
	if looksLikeTesseractCode(code) {
		code, _, _ = strings.Cut(code, "_")
	}

	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	if base.String() == "zh" {
		if script, _ := tag.Script(); script.String() == "Hant" {
			return "zh-Hant"
		}
		return "zh-Hans"
	}
	return base.String()
}

// ToTesseract converts one language (BCP-47 tag like "ja" or "zh-Hant", or
// an existing Tesseract code like "jpn") into a Tesseract code.
// Unknown input is returned unchanged so custom traineddata names still work.
func ToTesseract(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if looksLikeTesseractCode(code) {
		return code
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}

	if tess, ok := special[tag.String()]; ok {
		return tess
	}
	base, _ := tag.Base()
	if base.String() == "zh" {
		script, _ := tag.Script()
		if script.String() == "Hant" {
			return "chi_tra"
		}
		return "chi_sim"
	}

	// ISO3 yields the 639-2/T code, which is what traineddata files are named after.
	if iso3 := base.ISO3(); iso3 != "" {
		return iso3
	}
	return code
}

// ToTesseractList converts a comma or plus separated list and joins it with "+",
// the form Tesseract accepts for multi-language recognition.
func ToTesseractList(codes string) string {
	parts := Split(codes)
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		t := ToTesseract(p)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, "+")
}

// Split splits a language list on commas, plus signs and whitespace
func Split(codes string) []string {
	return strings.FieldsFunc(codes, func(r rune) bool {
		return r == ',' || r == '+' || r == ' ' || r == '\t'
	})
}

// IsJapanese reports whether code names Japanese in either notation
func IsJapanese(code string) bool {
	for _, p := range Split(code) {
		if ToTesseract(p) == "jpn" || strings.HasPrefix(ToTesseract(p), "jpn_") {
			return true
		}
	}
	return false
}

// looksLikeTesseractCode matches three-letter codes and names like chi_sim or jpn_vert
func looksLikeTesseractCode(code string) bool {
	head, _, _ := strings.Cut(code, "_")
	if len(head) != 3 {
		return false
	}
	for _, r := range head {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

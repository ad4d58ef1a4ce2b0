// Package textproc cleans up recognised text before it is saved.
package textproc

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultJoinSuffixes are line endings after which a break is an OCR
// artefact of line wrapping rather than a real paragraph break.
var DefaultJoinSuffixes = []string{"、", "かつ", "で", "の"}

// Options control post-processing
type Options struct {
	JoinLines    bool
	JoinSuffixes []string // DefaultJoinSuffixes when nil
	RemoveSpaces bool
}

// Process normalises text and applies opts
func Process(text string, opts Options) string {
	if text == "" {
		return ""
	}

	text = NormalizeNewlines(text)
	text = norm.NFC.String(text)

	if opts.JoinLines {
		suffixes := opts.JoinSuffixes
		if suffixes == nil {
			suffixes = DefaultJoinSuffixes
		}
		text = JoinLines(text, suffixes)
	}
	if opts.RemoveSpaces {
		text = strings.ReplaceAll(text, " ", "")
	}
	return text
}

// NormalizeNewlines converts CRLF and lone CR to LF
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// JoinLines removes one line break directly following any of suffixes.
// Each break is considered once, so blank lines are reduced by one break, not removed.
func JoinLines(text string, suffixes []string) string {
	if len(suffixes) == 0 {
		return text
	}
	pairs := make([]string, 0, len(suffixes)*2)
	for _, s := range suffixes {
		if s == "" {
			continue
		}
		pairs = append(pairs, s+"\n", s)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

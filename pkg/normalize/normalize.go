// Package normalize turns pasted text into name keys.
//
// The classification APIs only handle a single plain word per name, so every
// pasted line is folded to ASCII where possible and cut at its first
// non-letter.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IgnoredName is skipped in pasted input. It is the usual column header when
// a whole spreadsheet column is pasted.
const IgnoredName = "First"

// letters without a canonical decomposition.
var foldTable = map[rune]string{
	'ß': "ss", 'ẞ': "SS",
	'Æ': "AE", 'æ': "ae",
	'Œ': "OE", 'œ': "oe",
	'Ø': "O", 'ø': "o",
	'Ł': "L", 'ł': "l",
	'Đ': "D", 'đ': "d",
	'Ð': "D", 'ð': "d",
	'Þ': "Th", 'þ': "th",
	'ı': "i",
}

// Lines splits text into lines and returns the normalised name of every
// non-empty line other than IgnoredName. Order and duplicates are kept.
func Lines(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == IgnoredName {
			continue
		}
		if name := Name(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Name folds raw to ASCII where possible and returns its first run of
// letters. "José-María" becomes "Jose", "Jo Ann" becomes "Jo".
func Name(raw string) string {
	folded := Fold(raw)

	end := strings.IndexFunc(folded, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return folded
	}
	return folded[:end]
}

// Fold strips diacritics from s and spells out letters such as ß and Æ.
// Letters of scripts without a Latin folding are kept unchanged.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	if !strings.ContainsFunc(stripped, func(r rune) bool { _, ok := foldTable[r]; return ok }) {
		return stripped
	}

	var b strings.Builder
	b.Grow(len(stripped) + 4)
	for _, r := range stripped {
		if rep, ok := foldTable[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

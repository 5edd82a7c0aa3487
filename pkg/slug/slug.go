// Package slug builds URL-safe identifiers for sources, categories and authors.
package slug

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	dashes   = regexp.MustCompile(`-+`)
)

// Make lowercases s, strips accents and joins alphanumeric runs with single hyphens.
// "The New York Times" -> "the-new-york-times", "Café Society" -> "cafe-society".
// Names with no Latin letters or digits ("李明", "Аргументы") get a stable
// "n-<md5 prefix>" slug so distinct names never share an empty one.
// Only blank input yields "".
func Make(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	out := strings.ReplaceAll(s, "@", " at ")
	out = removeAccents(out)
	out = nonAlnum.ReplaceAllString(out, "-")
	out = dashes.ReplaceAllString(out, "-")
	if out = strings.Trim(out, "-"); out != "" {
		return out
	}
	return fallback(s)
}

func fallback(s string) string {
	sum := md5.Sum([]byte(norm.NFC.String(s)))
	return "n-" + hex.EncodeToString(sum[:])[:12]
}

// UpperFirst uppercases the first rune only.
func UpperFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

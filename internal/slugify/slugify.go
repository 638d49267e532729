// Package slugify implements the MediaWiki "dbkey" title-normalisation
// convention used to index pages by title: spaces and underscores are
// interchangeable, percent-encoding is decoded, Unicode is NFC-folded,
// and the first letter is upper-cased except in namespaces that are
// case-sensitive.
package slugify

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CaseRule decides how a namespace's first title letter is folded.
// Parameterising this per namespace matches the MediaWiki dbkey
// convention, under which most namespaces are "first-letter" case but a
// handful (user subpages on some wikis, module code namespaces) are
// case-sensitive end to end.
type CaseRule func(firstRune rune) rune

// FirstLetterUpper is the default rule applied to "first-letter"
// namespaces: the dominant MediaWiki convention.
func FirstLetterUpper(r rune) rune { return unicode.ToUpper(r) }

// CaseSensitive leaves the first letter untouched.
func CaseSensitive(r rune) rune { return r }

// Slugify normalises title into its canonical slug form for the given
// namespace, applying rule to the first rune.
func Slugify(title string, rule CaseRule) string {
	if rule == nil {
		rule = FirstLetterUpper
	}

	decoded := title
	if unescaped, err := url.PathUnescape(title); err == nil {
		decoded = unescaped
	}

	underscored := strings.ReplaceAll(decoded, " ", "_")
	folded := norm.NFC.String(underscored)
	folded = strings.TrimSpace(folded)
	if folded == "" {
		return folded
	}

	r, size := utf8.DecodeRuneInString(folded)
	if r == utf8.RuneError {
		return folded
	}
	return string(rule(r)) + folded[size:]
}

// Package textfilter softens companion dialogue for audiences below the
// mature content rating.
package textfilter

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// softened maps a word to the milder word the companion says instead.
var softened = map[string]string{
	"fuck":         "fudge",
	"fucking":      "freaking",
	"motherfucker": "monster",
	"shit":         "shoot",
	"bullshit":     "nonsense",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "butt",
	"asshole":      "jerk",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"dick":         "jerk",
	"prick":        "jerk",
	"crap":         "crud",
	"piss":         "tick",
	"pissed":       "ticked",
}

// Filter replaces profanity while keeping the speaker's capitalisation.
type Filter struct {
	pattern *regexp.Regexp
}

// New compiles the filter. Longer words are tried first so compounds win
// over their parts.
func New() *Filter {
	words := make([]string, 0, len(softened))
	for w := range softened {
		words = append(words, regexp.QuoteMeta(w))
	}
	slices.SortFunc(words, func(a, b string) int { return len(b) - len(a) })
	return &Filter{pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)}
}

// ForRating returns a filter for ratings that need one and nil otherwise.
func ForRating(rating string) *Filter {
	if !Restricted(rating) {
		return nil
	}
	return New()
}

// Restricted reports whether content at rating must be softened.
func Restricted(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13", "TEEN":
		return true
	}
	return false
}

// Clean returns text with every listed word softened. A nil filter returns
// text unchanged.
func (f *Filter) Clean(text string) string {
	if f == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return matchCase(match, softened[strings.ToLower(match)])
	})
}

// Contains reports whether text has anything Clean would change.
func (f *Filter) Contains(text string) bool {
	return f != nil && f.pattern.MatchString(text)
}

func matchCase(original, replacement string) string {
	switch {
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	case cases.Title(language.English).String(strings.ToLower(original)) == original:
		return cases.Title(language.English).String(replacement)
	}
	orig := []rune(original)
	out := []rune(replacement)
	for i := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}

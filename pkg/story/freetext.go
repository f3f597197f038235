package story

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Free-text choice id prefixes. These bypass the graph.
const (
	CustomPrefix = "custom-"
	SpeakPrefix  = "speak-"
)

const maxFreeTextRunes = 280

// IsFreeText reports whether choiceID is a free-text choice.
func IsFreeText(choiceID string) bool {
	return strings.HasPrefix(choiceID, CustomPrefix) || strings.HasPrefix(choiceID, SpeakPrefix)
}

// FreeTextRule pairs a keyword predicate with a narration template.
type FreeTextRule struct {
	Name     string
	Match    func(lower string) bool
	Template func(text, companion string) string
	Event    string
}

// Reply is the narration produced for a free-text choice.
type Reply struct {
	Rule      string `json:"rule"`
	Narration string `json:"narration"`
	Event     string `json:"event,omitempty"`
}

// Narrator matches free text against an ordered rule list. First match wins.
type Narrator struct {
	companion string
	rules     []FreeTextRule
	fallback  func(text, companion string) string
}

// NewNarrator builds the default rule list for the named companion.
func NewNarrator(companion string) *Narrator {
	if companion == "" {
		companion = "Hae-In"
	}
	return &Narrator{
		companion: companion,
		rules:     defaultFreeTextRules(companion),
		fallback: func(text, _ string) string {
			return fmt.Sprintf("You decide: %q. The dungeon seems to take note.", text)
		},
	}
}

// Respond narrates the player's literal text.
func (n *Narrator) Respond(text string) Reply {
	clean := SanitizeText(text)
	lower := " " + cases.Lower(language.Und).String(clean) + " "
	for _, r := range n.rules {
		if r.Match(lower) {
			return Reply{Rule: r.Name, Narration: r.Template(clean, n.companion), Event: r.Event}
		}
	}
	return Reply{Rule: "fallback", Narration: n.fallback(clean, n.companion)}
}

// SanitizeText trims, collapses whitespace and bounds the length of player text.
func SanitizeText(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(clean) > maxFreeTextRunes {
		clean = string([]rune(clean)[:maxFreeTextRunes])
	}
	return clean
}

func containsAny(lower string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func defaultFreeTextRules(companion string) []FreeTextRule {
	name := strings.ToLower(companion)
	aliases := []string{name, strings.ReplaceAll(name, "-", ""), strings.ReplaceAll(name, "-", " ")}

	return []FreeTextRule{
		{
			Name:  "companion",
			Match: func(lower string) bool { return containsAny(lower, aliases...) },
			Template: func(text, companion string) string {
				return fmt.Sprintf("%s listens as you say %q, then answers with a quiet nod.", companion, text)
			},
			Event: EventMeetCompanion,
		},
		{
			Name: "greeting",
			Match: func(lower string) bool {
				return containsAny(lower, " hello", " hi ", " hey", "greetings", "good morning", "good evening")
			},
			Template: func(text, _ string) string {
				return fmt.Sprintf("You call out %q. The words echo off the stone and something deeper in the dungeon stirs.", text)
			},
		},
		{
			Name:  "examine",
			Match: func(lower string) bool { return containsAny(lower, "examine", "inspect", "look") },
			Template: func(text, _ string) string {
				return fmt.Sprintf("You take a closer look (%q). The details settle into your memory.", text)
			},
		},
		{
			Name:  "cast",
			Match: func(lower string) bool { return containsAny(lower, "cast", "spell", "magic") },
			Template: func(text, _ string) string {
				return fmt.Sprintf("You gather mana and try it: %q. The runes flare in answer.", text)
			},
		},
		{
			Name:  "attack",
			Match: func(lower string) bool { return containsAny(lower, "attack", "strike", "fight") },
			Template: func(text, _ string) string {
				return fmt.Sprintf("You commit to it: %q. Steel rings against stone.", text)
			},
		},
	}
}

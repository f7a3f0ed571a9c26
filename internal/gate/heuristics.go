package gate

import (
	"regexp"
	"strings"

	"boardroom/internal/types"
)

// verdict is the heuristic's three-way outcome. Only unclear goes on to the
// token source for judgment.
type verdict int

const (
	verdictUnclear verdict = iota
	verdictSpecific
	verdictVague
)

// minSubstanceWords is the floor below which an answer is vague outright.
const minSubstanceWords = 5

// hedgeMarkers are phrases that signal a non-committal answer. Matched
// case-insensitively against the whole text so multi-word markers work.
var hedgeMarkers = []string{
	"maybe", "probably", "possibly", "hopefully", "eventually", "someday",
	"kind of", "sort of", "i guess", "i think", "i suppose", "not sure",
	"some stuff", "things like", "a lot of", "various", "generally",
	"usually", "at some point", "we'll see", "might", "could be",
}

var (
	digitPattern = regexp.MustCompile(`[0-9]`)
	datePattern  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|monday|tuesday|wednesday|thursday|friday|saturday|sunday|q[1-4]|\d{4})\b`)
	// A capitalized word after the first position usually names something:
	// a person, a company, a project.
	properNounPattern = regexp.MustCompile(`\s[A-Z][a-z]{2,}`)
)

// assess applies the deterministic specificity heuristic. The returned reason
// explains the decisive signal; unclear verdicts carry the tally for the
// judgment prompt.
func assess(answer string, question types.Question) (verdict, string) {
	trimmed := strings.TrimSpace(answer)
	lower := strings.ToLower(trimmed)

	if len(strings.Fields(trimmed)) < minSubstanceWords {
		return verdictVague, "answer too short to carry specifics"
	}

	concrete := 0
	if digitPattern.MatchString(trimmed) {
		concrete++
	}
	if datePattern.MatchString(trimmed) {
		concrete++
	}
	if properNounPattern.MatchString(trimmed) {
		concrete++
	}
	if strings.ContainsAny(trimmed, "$%") {
		concrete++
	}
	for _, term := range question.MustMention {
		if strings.Contains(lower, strings.ToLower(term)) {
			concrete++
			break
		}
	}

	hedges := 0
	for _, marker := range hedgeMarkers {
		if strings.Contains(lower, marker) {
			hedges++
		}
	}

	switch {
	case concrete >= 3:
		// Enough hard signals to accept even a hedged answer.
		return verdictSpecific, "multiple concrete signals (numbers, names, dates)"
	case concrete >= 2 && hedges == 0:
		return verdictSpecific, "concrete signals without hedging"
	case concrete == 0 && hedges >= 2:
		return verdictVague, "hedging language with no concrete detail"
	case concrete == 0 && hedges >= 1 && len(strings.Fields(trimmed)) < 15:
		return verdictVague, "short hedged answer with no concrete detail"
	default:
		return verdictUnclear, "mixed signals"
	}
}

// Package gate decides whether an answer is specific enough to advance a
// guided session. A fast deterministic heuristic handles the clear cases; only
// ambiguous answers are sent to the language model for a verdict, which keeps
// latency and cost down on the common path.
package gate

import (
	"context"
	"fmt"
	"strings"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// Result is the outcome of a single gate evaluation.
type Result struct {
	// Passed reports whether the session may advance past this question.
	Passed bool `json:"passed"`
	// IsSpecific is false on a forced pass, so callers can tell a genuine
	// acceptance from an exhausted one.
	IsSpecific bool `json:"isSpecific"`
	// Reason is a short human-readable explanation of the verdict.
	Reason string `json:"reason"`
	// ChallengeMessage is the follow-up shown to the user when the answer is
	// rejected. Empty when Passed.
	ChallengeMessage string `json:"challengeMessage,omitempty"`
	// AttemptCount is the attempt number after this evaluation.
	AttemptCount int `json:"attemptCount"`
}

// Gate evaluates answer specificity. Construct with New.
type Gate struct {
	source      types.TokenSource
	maxAttempts int
}

// New builds a gate backed by source for ambiguous answers. maxAttempts is
// the attempt on which a failing answer is accepted anyway; values below 1
// fall back to the default of 3.
func New(source types.TokenSource, maxAttempts int) *Gate {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Gate{source: source, maxAttempts: maxAttempts}
}

// MaxAttempts returns the forced-pass bound.
func (g *Gate) MaxAttempts() int {
	return g.maxAttempts
}

// Evaluate judges answer against question. attemptCount is the number of
// evaluations this question has already consumed; the attempt being judged is
// attemptCount+1. When that attempt reaches the configured maximum, a failing
// answer is accepted with IsSpecific false so the session can never stall on
// one question.
func (g *Gate) Evaluate(ctx context.Context, answer string, question types.Question, attemptCount int) (Result, error) {
	attempt := attemptCount + 1

	verdict, reason := assess(answer, question)
	if verdict == verdictUnclear {
		verdict, reason = g.judge(ctx, answer, question)
	}

	if verdict == verdictSpecific {
		logging.Gate("question %s passed on attempt %d: %s", question.ID, attempt, reason)
		return Result{
			Passed:       true,
			IsSpecific:   true,
			Reason:       reason,
			AttemptCount: attempt,
		}, nil
	}

	if attempt >= g.maxAttempts {
		logging.Gate("question %s force-passed after %d attempts", question.ID, attempt)
		return Result{
			Passed:       true,
			IsSpecific:   false,
			Reason:       fmt.Sprintf("accepted after %d attempts without a specific answer", attempt),
			AttemptCount: attempt,
		}, nil
	}

	logging.GateDebug("question %s rejected on attempt %d: %s", question.ID, attempt, reason)
	return Result{
		Passed:           false,
		IsSpecific:       false,
		Reason:           reason,
		ChallengeMessage: challengeFor(question, attempt),
		AttemptCount:     attempt,
	}, nil
}

// judgePrompt asks for a one-word verdict on the first line so the response
// parses without any structured-output machinery.
const judgePrompt = `You are grading an answer for specificity.

Question: %s

Answer: %s

A specific answer names concrete facts: numbers, dates, names, or decisions.
A vague answer hedges or stays abstract.

Reply with exactly one word on the first line: SPECIFIC or VAGUE.
On the second line, give a one-sentence reason.`

// judge sends an ambiguous answer to the token source. Upstream failure
// accepts the answer leniently rather than blocking the session on an
// unrelated outage.
func (g *Gate) judge(ctx context.Context, answer string, question types.Question) (verdict, string) {
	prompt := fmt.Sprintf(judgePrompt, question.Prompt, answer)

	reply, err := g.source.Complete(ctx, "", prompt)
	if err != nil {
		logging.GateDebug("judgment unavailable, accepting leniently: %v", err)
		return verdictSpecific, "judgment unavailable, accepted leniently"
	}

	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	head := strings.ToUpper(strings.TrimSpace(lines[0]))
	reason := "model judgment"
	if len(lines) > 1 {
		if r := strings.TrimSpace(lines[1]); r != "" {
			reason = r
		}
	}

	switch {
	case strings.HasPrefix(head, "VAGUE"):
		return verdictVague, reason
	case strings.HasPrefix(head, "SPECIFIC"):
		return verdictSpecific, reason
	default:
		logging.GateDebug("unparseable judgment %q, accepting leniently", head)
		return verdictSpecific, "judgment unparseable, accepted leniently"
	}
}

// challengeTemplates escalate in directness across attempts.
var challengeTemplates = []string{
	"That's still pretty abstract. Give me something concrete for %q: a number, a date, or a name.",
	"I need specifics before we move on. For %q, what actually happened? Name the figure, the person, or the deadline.",
	"Last push on %q: one hard fact is enough. What's the single most concrete thing you can point to?",
}

func challengeFor(question types.Question, attempt int) string {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(challengeTemplates) {
		idx = len(challengeTemplates) - 1
	}
	return fmt.Sprintf(challengeTemplates[idx], question.Prompt)
}

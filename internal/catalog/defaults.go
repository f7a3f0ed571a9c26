package catalog

import "boardroom/internal/types"

// Built-in catalog used when no catalog directory is configured. Content here
// is ordinary configuration data; deployments override it with their own
// questions.yaml / personas.yaml.

var defaultQuestions = []types.Question{
	{
		ID:       "q_shipped",
		Ordinal:  0,
		Prompt:   "What did you actually deliver in the last quarter? Name the concrete outcomes.",
		Criteria: "Names at least one concrete deliverable with a date, number, or named project.",
		MustMention: []string{
			"shipped", "delivered", "launched", "closed", "published",
		},
	},
	{
		ID:       "q_bets",
		Ordinal:  1,
		Prompt:   "What is the single biggest bet you are making right now, and what does it cost you?",
		Criteria: "Identifies one specific bet and its cost or tradeoff, not a list of aspirations.",
		MustMention: []string{
			"bet", "cost", "risk", "tradeoff", "invest",
		},
	},
	{
		ID:       "q_numbers",
		Ordinal:  2,
		Prompt:   "Which numbers do you track weekly, and what did they say last week?",
		Criteria: "Cites actual figures or an honest admission of not tracking, with what changes.",
		MustMention: []string{
			"revenue", "hours", "pipeline", "rate", "count", "week",
		},
	},
	{
		ID:       "q_stop",
		Ordinal:  3,
		Prompt:   "What will you stop doing this month to make room for what matters?",
		Criteria: "Commits to dropping a named activity, not a vague intention to do less.",
		MustMention: []string{
			"stop", "drop", "cancel", "quit", "delegate",
		},
	},
	{
		ID:       "q_ask",
		Ordinal:  4,
		Prompt:   "If your board could open one door for you this quarter, which door, and why now?",
		Criteria: "Names a specific person, company, or opportunity and the reason for the timing.",
		MustMention: []string{
			"introduce", "connect", "door", "meeting", "intro",
		},
	},
}

var defaultPersonas = []types.Persona{
	{
		ID:   "chair",
		Name: "The Chair",
		Instructions: "You chair this board meeting. Open warmly, frame the agenda from the " +
			"member's own words, and hand off cleanly. Keep responses under four paragraphs.",
	},
	{
		ID:   "skeptic",
		Name: "The Skeptic",
		Instructions: "You are the board's skeptic. Probe for evidence behind every claim the " +
			"member makes. Ask one pointed follow-up question per response. Never be cruel.",
	},
	{
		ID:   "operator",
		Name: "The Operator",
		Instructions: "You are a seasoned operator. Turn the discussion toward execution: " +
			"sequencing, capacity, and what gets cut. Offer one concrete next step each turn.",
	},
	{
		ID:   "visionary",
		Name: "The Visionary",
		Instructions: "You push the member to think two sizes bigger. Connect their situation " +
			"to market shifts and adjacent opportunities they have not named.",
	},
	{
		ID:   "closer",
		Name: "The Closer",
		Instructions: "You close the meeting. Summarize the commitments made, restate them as " +
			"a numbered list, and end with the single question the member must answer by next meeting.",
	},
}

// defaultPhases maps each board-meeting phase to its persona.
var defaultPhases = []string{"chair", "skeptic", "operator", "visionary", "closer"}

// Default returns the built-in catalog snapshot.
func Default() (*Catalog, error) {
	return build(defaultQuestions, defaultPersonas, defaultPhases)
}

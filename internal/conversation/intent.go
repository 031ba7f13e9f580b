package conversation

import (
	"regexp"
	"strings"
)

// Phrase detectors. Those applied to the remote assistant's own text are
// heuristics: a paraphrasing model can slip past them or trip them, so they
// only ever move the conversation to states the user can still back out of.
var (
	generateNowPattern = regexp.MustCompile(`(?i)\b(generate|create|build|make|prepare|draft|write|send)\b[\w\s']{0,30}\bproposal\b|\bproposal\b[\w\s,]{0,15}\b(now|please)\b`)
	affirmPattern      = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|yup|sure|ok|okay|go ahead|please do|please|sounds good|proceed|absolutely|definitely|do it|let'?s do it|let'?s go|approve|approved|confirm|confirmed|correct|perfect)\b`)
	negatePattern      = regexp.MustCompile(`(?i)^\s*(no|nope|nah|not yet|wait|hold on|cancel|reject|don'?t|do not|stop)\b`)
	proposalPattern    = regexp.MustCompile(`(?i)\bproposal\b`)
	budgetGatePattern  = regexp.MustCompile(`(?i)\bbudget\b.{0,80}\b(too low|is low|below|under our|minimum|not sufficient|insufficient|increase|doesn'?t cover|does not cover|unrealistic|tight|not enough)\b|\b(minimum|starting) (budget|price|cost)\b`)
	readinessPattern   = regexp.MustCompile(`(?i)\b(ready to (generate|create|prepare|draft|put together)|shall i (go ahead and )?(generate|create|prepare|draft)|should i (go ahead and )?(generate|create|prepare|draft)|i have (all|everything) (the information|the details|i need|we need)|generate (the|your) proposal)\b`)
)

// IsGenerateRequest reports explicit "generate the proposal" phrasing.
func IsGenerateRequest(text string) bool { return generateNowPattern.MatchString(text) }

// IsAffirmation reports a short agreeing reply.
func IsAffirmation(text string) bool {
	return len(strings.Fields(text)) <= 8 && affirmPattern.MatchString(text)
}

// IsNegation reports a short declining reply.
func IsNegation(text string) bool {
	return len(strings.Fields(text)) <= 8 && negatePattern.MatchString(text)
}

// MentionsProposal reports whether an assistant message is about the
// proposal, so that a following "yes" means "generate it".
func MentionsProposal(text string) bool { return proposalPattern.MatchString(text) }

// IsBudgetGate reports a remote reply warning that the budget is too low.
func IsBudgetGate(text string) bool { return budgetGatePattern.MatchString(text) }

// IsProposalReady reports a remote reply announcing that it has enough to
// write the proposal.
func IsProposalReady(text string) bool { return readinessPattern.MatchString(text) }

// wantsProposal combines the direct request signals for a user message
// given the previous assistant message.
func wantsProposal(text, prevAssistant string) bool {
	if IsGenerateRequest(text) {
		return true
	}
	return IsAffirmation(text) && MentionsProposal(prevAssistant)
}

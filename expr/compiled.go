package expr

// Compiled is a compiled expression: an ordered reverse-Polish token
// sequence, the widest vector width used anywhere in it, and the history
// depths it requires of its input and output histories (spec.md §3
// "Compiled expression").
type Compiled struct {
	Source            string
	Tokens            []Token
	VectorSize        int
	InputHistorySize  int
	OutputHistorySize int

	// Start is the token index the evaluator resumes from on each Eval
	// call. It begins at 0 and is advanced past any one-shot history
	// initializer statement the first time that statement runs, so later
	// samples skip it (spec.md §9's third open question).
	Start int
}

package engine

import (
	"slices"
	"strings"

	"saptunectl/internal/orderedset"
)

// Operator is the sign of an expression entry.
type Operator string

// Entries without a sign add; a leading "-" removes.
const (
	OpAdd    Operator = "+"
	OpRemove Operator = "-"
)

const (
	removePrefix   = "-"
	solutionPrefix = "@"
)

// Token is one syntactically valid expression entry.
type Token struct {
	Index    int
	Raw      string
	Op       Operator
	Solution bool
	Name     string
}

// Expression is a desired-state expression: an ordered list of Note and
// Solution entries, or the sentinel that leaves the current tuning untouched.
//
// The zero value is the empty list, which means "no tuning at all".
type Expression struct {
	tokens    []Token
	untouched bool
}

// Untouched returns the sentinel expression that skips Note and Solution
// reconciliation entirely.
func Untouched() Expression {
	return Expression{untouched: true}
}

// ParseExpression checks the syntax of every entry. It needs no inventory, so
// malformed input is rejected before anything is read from the host.
func ParseExpression(entries []string) (Expression, error) {
	tokens := make([]Token, 0, len(entries))
	for i, raw := range entries {
		tok, err := parseToken(i, raw)
		if err != nil {
			return Expression{}, err
		}
		tokens = append(tokens, tok)
	}
	return Expression{tokens: tokens}, nil
}

// MustParseExpression is like ParseExpression but panics on error.
func MustParseExpression(entries ...string) Expression {
	expr, err := ParseExpression(entries)
	if err != nil {
		panic(err)
	}
	return expr
}

func parseToken(index int, raw string) (Token, error) {
	invalid := func(reason string) error {
		return &ExpressionError{Index: index, Entry: raw, Reason: reason, Err: ErrInvalidExpression}
	}

	if strings.HasPrefix(raw, removePrefix+solutionPrefix) {
		return Token{}, invalid("Solutions cannot be removed with a minus operator")
	}
	if raw == "" {
		return Token{}, invalid("empty entry")
	}

	tok := Token{Index: index, Raw: raw, Op: OpAdd, Name: raw}
	if rest, ok := strings.CutPrefix(raw, removePrefix); ok {
		tok.Op = OpRemove
		tok.Name = rest
	}
	if rest, ok := strings.CutPrefix(tok.Name, solutionPrefix); ok {
		tok.Solution = true
		tok.Name = rest
	}
	if tok.Name == "" {
		return Token{}, invalid("missing identifier")
	}
	return tok, nil
}

// IsUntouched reports whether e is the "leave current tuning untouched" sentinel.
func (e Expression) IsUntouched() bool {
	return e.untouched
}

// Tokens returns the parsed entries in order.
func (e Expression) Tokens() []Token {
	return slices.Clone(e.tokens)
}

// Entries returns the raw entries in order.
func (e Expression) Entries() []string {
	out := make([]string, len(e.tokens))
	for i, tok := range e.tokens {
		out[i] = tok.Raw
	}
	return out
}

// String renders the expression for logs.
func (e Expression) String() string {
	if e.untouched {
		return "<untouched>"
	}
	return "[" + strings.Join(e.Entries(), " ") + "]"
}

// Resolve walks the expression against the inventory and returns the effective
// target together with one command per entry that changes it, in entry order.
// The leading revert-all is not included.
//
// Adding a Note that is already effective and removing one that is not are
// silent no-ops. After every entry the effective Solution is dropped once none
// of its member Notes remain effective, which is how saptune itself treats a
// Solution whose Notes were all reverted.
func Resolve(inv Inventory, expr Expression) (Target, []Command, error) {
	effective := orderedset.New[string]()
	var (
		solution      string
		solutionNotes *orderedset.Set[string]
		seenSolution  bool
		commands      []Command
	)

	for _, tok := range expr.tokens {
		if tok.Solution {
			if !inv.HasSolution(tok.Name) {
				return Target{}, nil, &ExpressionError{Index: tok.Index, Entry: tok.Raw, Err: ErrUnknownSolution}
			}
			if seenSolution {
				return Target{}, nil, &ExpressionError{Index: tok.Index, Entry: tok.Raw, Err: ErrMultipleSolutions}
			}
			seenSolution = true
			solution = tok.Name
			solutionNotes = orderedset.New(inv.SolutionNotes(tok.Name)...)
			effective.Update(solutionNotes.Items()...)
			commands = append(commands, ApplySolution(tok.Name))
		} else {
			if !inv.HasNote(tok.Name) {
				return Target{}, nil, &ExpressionError{Index: tok.Index, Entry: tok.Raw, Err: ErrUnknownNote}
			}
			switch tok.Op {
			case OpAdd:
				if !effective.Contains(tok.Name) {
					effective.Add(tok.Name)
					commands = append(commands, ApplyNote(tok.Name))
				}
			case OpRemove:
				if effective.Contains(tok.Name) {
					effective.Discard(tok.Name)
					commands = append(commands, RevertNote(tok.Name))
				}
			}
		}

		if solution != "" && effective.Intersect(solutionNotes).Len() == 0 {
			solution = ""
			solutionNotes = nil
		}
	}

	return Target{Notes: effective.Items(), Solution: solution}, commands, nil
}

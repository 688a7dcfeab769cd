package compiler

import "github.com/peteranastasiou/pond/internal/token"

// Precedence orders binding strength, low to high, per spec.md §4.2.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// parseFn is a prefix or infix handler. canAssign is only meaningful
// to identifier handling; every other handler ignores it.
type parseFn func(c *Compiler, canAssign bool)

// rule is one entry of the fixed per-token dispatch table (the
// REDESIGN FLAGS architecture in spec.md §9, replacing a switch-based
// dispatch with a table indexed by token kind).
type rule struct {
	prefix    parseFn
	infix     parseFn
	infixPrec Precedence
}

// rules is indexed directly by token.Type; built once at package init.
var rules [token.NumTypes]rule

func addRule(t token.Type, prefix, infix parseFn, prec Precedence) {
	rules[t] = rule{prefix: prefix, infix: infix, infixPrec: prec}
}

func init() {
	addRule(token.LEFT_PAREN, (*Compiler).grouping, (*Compiler).call, PrecCall)
	addRule(token.RIGHT_PAREN, nil, nil, PrecNone)
	addRule(token.LEFT_BRACE, nil, nil, PrecNone)
	addRule(token.RIGHT_BRACE, nil, nil, PrecNone)
	addRule(token.LEFT_BRACKET, (*Compiler).list, (*Compiler).index, PrecCall)
	addRule(token.RIGHT_BRACKET, nil, nil, PrecNone)
	addRule(token.COMMA, nil, nil, PrecNone)
	addRule(token.SEMICOLON, nil, nil, PrecNone)
	addRule(token.MINUS, (*Compiler).unary, (*Compiler).binary, PrecTerm)
	addRule(token.PLUS, nil, (*Compiler).binary, PrecTerm)
	addRule(token.SLASH, nil, (*Compiler).binary, PrecFactor)
	addRule(token.STAR, nil, (*Compiler).binary, PrecFactor)
	addRule(token.BANG, (*Compiler).unary, nil, PrecNone)
	addRule(token.BANG_EQUAL, nil, (*Compiler).binary, PrecEquality)
	addRule(token.EQUAL, nil, nil, PrecNone)
	addRule(token.EQUAL_EQUAL, nil, (*Compiler).binary, PrecEquality)
	addRule(token.LESS, nil, (*Compiler).binary, PrecComparison)
	addRule(token.LESS_EQUAL, nil, (*Compiler).binary, PrecComparison)
	addRule(token.GREATER, nil, (*Compiler).binary, PrecComparison)
	addRule(token.GREATER_EQUAL, nil, (*Compiler).binary, PrecComparison)
	addRule(token.IDENTIFIER, (*Compiler).variable, nil, PrecNone)
	addRule(token.STRING, (*Compiler).stringLiteral, nil, PrecNone)
	addRule(token.NUMBER, (*Compiler).number, nil, PrecNone)
	addRule(token.AND, nil, (*Compiler).and, PrecAnd)
	addRule(token.OR, nil, (*Compiler).or, PrecOr)
	addRule(token.FALSE, (*Compiler).literal, nil, PrecNone)
	addRule(token.TRUE, (*Compiler).literal, nil, PrecNone)
	addRule(token.NIL, (*Compiler).literal, nil, PrecNone)
	addRule(token.FN, (*Compiler).funcExpr, nil, PrecNone)
	addRule(token.IF, (*Compiler).ifExpr, nil, PrecNone)
	addRule(token.TYPE, (*Compiler).typeExpr, nil, PrecNone)
	addRule(token.END, nil, nil, PrecNone)
	addRule(token.ERROR, nil, nil, PrecNone)
}

// Package compiler implements pond's single-pass bytecode compiler: a
// Pratt expression parser driven directly off the scanner with no
// intermediate AST, emitting into a bytecode.Chunk as it goes.
package compiler

import (
	"fmt"

	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/scanner"
	"github.com/peteranastasiou/pond/internal/token"
)

// CompileError reports every diagnostic accumulated during a failed
// compile; Error() renders the first one, matching spec.md §6's
// "<line>: Error at '<lexeme>': <message>" format.
type CompileError struct {
	Messages []string
}

func (e *CompileError) Error() string {
	if len(e.Messages) == 0 {
		return "compile error"
	}
	return e.Messages[0]
}

func errf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Compiler drives the scanner and emits bytecode for one source unit.
// It holds a stack of Environments, one per lexically nested function,
// the innermost being env.
type Compiler struct {
	scanner *scanner.Scanner

	previous token.Token
	current  token.Token

	env *Environment

	hadError      bool
	hadFatalError bool
	panicMode     bool
	messages      []string
}

// Compile parses source end to end and returns the top-level script
// prototype, or a *CompileError if any diagnostic was raised.
func Compile(source string) (*bytecode.Prototype, error) {
	c := &Compiler{scanner: scanner.New(source)}
	c.env = newEnvironment(nil, TypeScript, "<script>")

	c.advance()
	for !c.match(token.END) {
		c.declaration()
		if c.hadFatalError {
			break
		}
	}

	c.emitReturn()

	if c.hadError || c.hadFatalError {
		return nil, &CompileError{Messages: c.messages}
	}
	return &bytecode.Prototype{
		Name:         c.env.name,
		Arity:        0,
		UpvalueCount: len(c.env.upvalues),
		Chunk:        c.env.chunk,
	}, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting ----------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == token.END {
		where = " at end"
	} else if tok.Type == token.ERROR {
		where = ""
	}
	c.messages = append(c.messages, fmt.Sprintf("%d: Error%s: %s", tok.Line, where, message))
}

// synchronize resyncs after a panic-mode error by advancing until a
// statement boundary, per spec.md §4.2.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.END {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.VAR, token.CONST, token.FN, token.IF, token.WHILE, token.RETURN, token.PRINT:
			return
		}
		c.advance()
	}
}

// --- declarations & statements ------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration(false)
	case c.match(token.CONST):
		c.varDeclaration(true)
	case c.match(token.FN):
		c.funcDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration(isConst bool) {
	c.consume(token.IDENTIFIER, "Expected variable name")
	name := c.previous.Lexeme

	global := c.env.scopeDepth == 0
	var slot int
	if !global {
		var err error
		slot, err = c.env.declareLocal(name, isConst)
		if err != nil {
			c.error(err.Error())
		}
	}

	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(bytecode.OP_NIL)
	}
	c.consume(token.SEMICOLON, "Expected ';' after variable declaration")

	if global {
		c.defineGlobal(name, isConst)
	} else {
		c.env.defineLocal(slot)
	}
}

func (c *Compiler) funcDeclaration() {
	c.consume(token.IDENTIFIER, "Expected function name")
	name := c.previous.Lexeme

	global := c.env.scopeDepth == 0
	var slot int
	if !global {
		var err error
		slot, err = c.env.declareLocal(name, true)
		if err != nil {
			c.error(err.Error())
		}
		c.env.defineLocal(slot) // defined before body, so `fn f(){ f(); }` resolves
	}

	c.function(name, TypeFunction)

	if global {
		c.defineGlobal(name, true)
	}
}

func (c *Compiler) defineGlobal(name string, isConst bool) {
	idx := c.addLiteral(name)
	op := bytecode.OP_DEFINE_GLOBAL_VAR
	if isConst {
		op = bytecode.OP_DEFINE_GLOBAL_CONST
	}
	c.emitBytes(byte(op), byte(idx))
}

// statement parses one ordinary (non-value-producing) statement. Only
// a block compiled with canBeExpression (a function body's own
// top-level block, entered via block(true) from function(), and the
// branches of an if chain in a value position) may leave a trailing
// expression value on the stack; every statement parsed here requires
// its expressions to be ';'-terminated.
func (c *Compiler) statement() {
	switch {
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block(false)
		c.popLocals(c.endScope())
	default:
		c.expressionStatement(false)
	}
}

// popLocals drops n locals discarded by a closed scope.
func (c *Compiler) popLocals(n int) {
	if n <= 0 {
		return
	}
	if n == 1 {
		c.emitOp(bytecode.OP_POP)
		return
	}
	c.emitBytes(byte(bytecode.OP_POP_N), byte(n))
}

func (c *Compiler) beginScope() { c.env.beginScope() }
func (c *Compiler) endScope() int { return c.env.endScope() }

// block parses `{ declarations... }`, already past `{`. When
// canBeExpression is true and the final statement is a bare
// expression-statement or a value-leaving if chain, its value is left
// on the stack (an implicit return for a function body, the branch
// value for an if-expression) instead of popped; block reports
// whether it did so.
func (c *Compiler) block(canBeExpression bool) bool {
	leaves := false
	for !c.check(token.RIGHT_BRACE) && !c.check(token.END) {
		leaves = false
		switch {
		case c.match(token.VAR):
			c.varDeclaration(false)
		case c.match(token.CONST):
			c.varDeclaration(true)
		case c.match(token.FN):
			c.funcDeclaration()
		default:
			atEnd := canBeExpression && c.startsLastStatement()
			leaves = c.expressionOrStatement(atEnd)
		}
		if c.panicMode {
			c.synchronize()
		}
	}
	c.consume(token.RIGHT_BRACE, "Expected '}' after block")
	return leaves
}

// startsLastStatement reports whether the statement about to be
// parsed is the block's final one: true unless a further declaration
// or statement follows before the closing brace. Conservative for
// control-flow keywords, which never leave a value.
func (c *Compiler) startsLastStatement() bool {
	switch c.current.Type {
	case token.WHILE, token.RETURN, token.PRINT, token.LEFT_BRACE, token.VAR, token.CONST, token.FN:
		return false
	default:
		return true
	}
}

// expressionOrStatement dispatches a non-declaration statement,
// allowing the final bare-expression case to leave a value when last
// is true. `if` threads last straight through to ifCore, since an
// if/elif/else chain is itself a candidate for leaving a value.
func (c *Compiler) expressionOrStatement(last bool) bool {
	switch {
	case c.match(token.IF):
		return c.ifCore(last)
	case c.match(token.WHILE):
		c.whileStatement()
		return false
	case c.match(token.RETURN):
		c.returnStatement()
		return false
	case c.match(token.PRINT):
		c.printStatement()
		return false
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block(false)
		c.popLocals(c.endScope())
		return false
	default:
		return c.expressionStatement(last)
	}
}

// ifStatement parses `if` in an ordinary statement position, where no
// branch may leave a value.
func (c *Compiler) ifStatement() {
	if c.ifCore(false) {
		c.error("Expected if-statement, not if-expression")
	}
}

// ifExpr is the Pratt prefix parselet for `if` used in expression
// position (e.g. `var x = if (a) { 1 } else { 2 };`); every branch
// must leave a value and `else` is mandatory.
func (c *Compiler) ifExpr(canAssign bool) {
	if !c.ifCore(true) {
		c.error("Expected if-expression, not if-statement")
	}
}

// ifCore compiles `if (cond) { ... } [elif (cond) { ... }]* [else { ... }]`,
// already past `if`. Every branch is a nestedBlock threaded with the
// same canBeExpression; elif/else branches must agree with the first
// on which form they are, and a value-leaving chain requires `else`.
func (c *Compiler) ifCore(canBeExpression bool) bool {
	c.consume(token.LEFT_PAREN, "Expected '(' after 'if'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expected ')' after condition")

	jumpOver := c.emitJump(bytecode.OP_JUMP_IF_FALSE_POP)
	c.consume(token.LEFT_BRACE, "Expected '{' after condition")
	isExpression := c.nestedBlock(canBeExpression)

	var jumpsToEnd []int
	for c.match(token.ELIF) {
		jumpsToEnd = append(jumpsToEnd, c.emitJump(bytecode.OP_JUMP))
		c.patchJump(jumpOver)

		c.consume(token.LEFT_PAREN, "Expected '(' after 'elif'")
		c.expression()
		c.consume(token.RIGHT_PAREN, "Expected ')' after condition")
		jumpOver = c.emitJump(bytecode.OP_JUMP_IF_FALSE_POP)
		c.consume(token.LEFT_BRACE, "Expected '{' after 'elif'")
		if c.nestedBlock(canBeExpression) != isExpression {
			c.error("Inconsistent if-statement/if-expression")
		}
	}

	if c.match(token.ELSE) {
		jumpsToEnd = append(jumpsToEnd, c.emitJump(bytecode.OP_JUMP))
		c.patchJump(jumpOver)

		c.consume(token.LEFT_BRACE, "Expected '{' after 'else'")
		if c.nestedBlock(canBeExpression) != isExpression {
			c.error("Inconsistent if-statement/if-expression")
		}
	} else {
		c.patchJump(jumpOver)
		if isExpression {
			c.error("Expected 'else' on if expression")
		}
	}

	for _, j := range jumpsToEnd {
		c.patchJump(j)
	}
	return isExpression
}

// nestedBlock parses `{ ... }` in its own scope, already past `{`, and
// unconditionally pops whatever locals it declared on exit — exact
// for a branch with no `var` declarations; a branch that both
// declares locals and leaves a trailing value shares the same
// stack-ordering limitation the original compiler's endScope_/POP_N
// has in that case (see DESIGN.md).
func (c *Compiler) nestedBlock(canBeExpression bool) bool {
	c.beginScope()
	leaves := c.block(canBeExpression)
	c.popLocals(c.endScope())
	return leaves
}

func (c *Compiler) whileStatement() {
	loopStart := c.env.chunk.Len()
	c.consume(token.LEFT_PAREN, "Expected '(' after 'while'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expected ')' after condition")

	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE_POP)
	c.statement()
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
}

func (c *Compiler) returnStatement() {
	if c.env.typ == TypeScript {
		c.error("Cannot return from top-level script")
	}
	if c.match(token.SEMICOLON) {
		c.emitOp(bytecode.OP_NIL)
	} else {
		c.expression()
		c.consume(token.SEMICOLON, "Expected ';' after return value")
	}
	c.emitOp(bytecode.OP_RETURN)
}

// printStatement parses `print ( expr ) ;`. PRINT pops and consumes
// its operand itself, so no trailing POP is emitted.
func (c *Compiler) printStatement() {
	c.consume(token.LEFT_PAREN, "Expected '(' after 'print'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expected ')' after expression")
	c.consume(token.SEMICOLON, "Expected ';' after print statement")
	c.emitOp(bytecode.OP_PRINT)
}

// expressionStatement parses an expression and distinguishes the three
// trailing contexts from spec.md §4.2.
func (c *Compiler) expressionStatement(canBeExpression bool) bool {
	c.expression()
	switch {
	case c.match(token.SEMICOLON):
		c.emitOp(bytecode.OP_POP)
		return false
	case canBeExpression && c.check(token.RIGHT_BRACE):
		return true
	default:
		c.errorAtCurrent("Expected ';' after expression")
		return false
	}
}

// --- expressions ---------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(minPrec Precedence) {
	c.advance()
	prefix := rules[c.previous.Type].prefix
	if prefix == nil {
		c.error("Expected expression")
		return
	}
	canAssign := minPrec <= PrecAssignment
	prefix(c, canAssign)

	for rules[c.current.Type].infixPrec >= minPrec && rules[c.current.Type].infix != nil {
		c.advance()
		rules[c.previous.Type].infix(c, canAssign)
	}

	if canAssign && c.check(token.EQUAL) {
		c.error("Invalid assignment target")
	}
}

func (c *Compiler) number(canAssign bool) {
	var n float64
	fmt.Sscanf(c.previous.Lexeme, "%g", &n)
	idx := c.addLiteral(n)
	c.emitBytes(byte(bytecode.OP_LITERAL), byte(idx))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	s := c.previous.Lexeme
	s = s[1 : len(s)-1] // strip quotes
	idx := c.addLiteral(s)
	c.emitBytes(byte(bytecode.OP_LITERAL), byte(idx))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(bytecode.OP_FALSE)
	case token.TRUE:
		c.emitOp(bytecode.OP_TRUE)
	case token.NIL:
		c.emitOp(bytecode.OP_NIL)
	}
}

func (c *Compiler) typeExpr(canAssign bool) {
	c.consume(token.LEFT_PAREN, "Expected '(' after 'type'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expected ')' after expression")
	c.emitOp(bytecode.OP_TYPE)
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.MINUS:
		c.emitOp(bytecode.OP_NEGATE)
	case token.BANG:
		c.emitOp(bytecode.OP_NOT)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := rules[opType]
	c.parsePrecedence(rule.infixPrec + 1)
	switch opType {
	case token.PLUS:
		c.emitOp(bytecode.OP_ADD)
	case token.MINUS:
		c.emitOp(bytecode.OP_SUBTRACT)
	case token.STAR:
		c.emitOp(bytecode.OP_MULTIPLY)
	case token.SLASH:
		c.emitOp(bytecode.OP_DIVIDE)
	case token.EQUAL_EQUAL:
		c.emitOp(bytecode.OP_EQUAL)
	case token.BANG_EQUAL:
		c.emitOp(bytecode.OP_NOT_EQUAL)
	case token.LESS:
		c.emitOp(bytecode.OP_LESS)
	case token.LESS_EQUAL:
		c.emitOp(bytecode.OP_LESS_EQUAL)
	case token.GREATER:
		c.emitOp(bytecode.OP_GREATER)
	case token.GREATER_EQUAL:
		c.emitOp(bytecode.OP_GREATER_EQUAL)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	endJump := c.emitJump(bytecode.OP_JUMP_IF_TRUE)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) list(canAssign bool) {
	n := 0
	if !c.check(token.RIGHT_BRACKET) {
		for {
			c.expression()
			n++
			if n > 255 {
				c.error("Too many list elements")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_BRACKET, "Expected ']' after list elements")
	c.emitBytes(byte(bytecode.OP_MAKE_LIST), byte(n))
}

func (c *Compiler) index(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_BRACKET, "Expected ']' after index")
	c.emitOp(bytecode.OP_INDEX_GET)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitBytes(byte(bytecode.OP_CALL), byte(argc))
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			argc++
			if argc > 255 {
				c.error("Too many arguments")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expected ')' after arguments")
	return argc
}

// variable resolves an identifier: local -> upvalue -> global, and
// handles `=` assignment to whichever it resolves to.
func (c *Compiler) variable(canAssign bool) {
	name := c.previous.Lexeme

	if slot, isConst, isDefined, ok := c.env.resolveLocal(name); ok {
		if !isDefined {
			c.error("Local variable referenced before definition")
		}
		if canAssign && c.match(token.EQUAL) {
			if isConst {
				c.error("Cannot assign to const variable")
			}
			c.expression()
			c.emitBytes(byte(bytecode.OP_SET_LOCAL), byte(slot))
			return
		}
		c.emitBytes(byte(bytecode.OP_GET_LOCAL), byte(slot))
		return
	}

	if idx, isConst, ok, err := resolveUpvalue(c.env, name); err != nil {
		c.error(err.Error())
	} else if ok {
		if canAssign && c.match(token.EQUAL) {
			if isConst {
				c.error("Cannot assign to const variable")
			}
			c.expression()
			c.emitBytes(byte(bytecode.OP_SET_UPVALUE), byte(idx))
			return
		}
		c.emitBytes(byte(bytecode.OP_GET_UPVALUE), byte(idx))
		return
	}

	idx := c.addLiteral(name)
	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitBytes(byte(bytecode.OP_SET_GLOBAL), byte(idx))
		return
	}
	c.emitBytes(byte(bytecode.OP_GET_GLOBAL), byte(idx))
}

// --- type-id constants (builtin opcodes, see internal/builtins) ----------

func init() {
	addRule(token.BOOL, wrapTypeID(typeid.OpBool), nil, PrecNone)
	addRule(token.FLOAT, wrapTypeID(typeid.OpFloat), nil, PrecNone)
	addRule(token.OBJECT, wrapTypeID(typeid.OpObject), nil, PrecNone)
	addRule(token.STRING_TYPE, wrapTypeID(typeid.OpString), nil, PrecNone)
	addRule(token.TYPEID, wrapTypeID(typeid.OpTypeid), nil, PrecNone)
}

func wrapTypeID(opcode byte) parseFn {
	return func(c *Compiler, canAssign bool) { c.emitByte(opcode) }
}

// --- functions -------------------------------------------------------------

func (c *Compiler) funcExpr(canAssign bool) {
	c.function("(anon)", TypeFunction)
}

// function compiles `(params) { body }`, already past the function's
// name (or past `fn` for an anonymous one), places the finished
// Prototype in the enclosing chunk's literal pool, and emits CLOSURE
// into the enclosing chunk's code.
func (c *Compiler) function(name string, typ envType) {
	enclosing := c.env
	c.env = newEnvironment(enclosing, typ, name)
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expected '(' after function name")
	arity := 0
	if !c.check(token.RIGHT_PAREN) {
		for {
			arity++
			if arity > 255 {
				c.error("Too many parameters")
			}
			c.consume(token.IDENTIFIER, "Expected parameter name")
			slot, err := c.env.declareLocal(c.previous.Lexeme, false)
			if err != nil {
				c.error(err.Error())
			}
			c.env.defineLocal(slot)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expected ')' after parameters")
	c.consume(token.LEFT_BRACE, "Expected '{' before function body")

	leaves := c.block(true)
	if leaves {
		c.emitOp(bytecode.OP_RETURN)
	} else {
		c.emitReturn()
	}

	fn := &bytecode.Prototype{
		Name:         name,
		Arity:        arity,
		UpvalueCount: len(c.env.upvalues),
		Chunk:        c.env.chunk,
	}
	upvalues := c.env.upvalues
	c.env = enclosing

	idx := c.addLiteral(fn)
	c.emitBytes(byte(bytecode.OP_CLOSURE), byte(idx), byte(len(upvalues)))
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitBytes(isLocal, byte(uv.index))
	}
}

// --- emit helpers ----------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.env.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.emitByte(b)
	}
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OP_NIL)
	c.emitOp(bytecode.OP_RETURN)
}

// emitJump writes the opcode followed by a two-byte placeholder,
// returning the offset of the placeholder for patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.env.chunk.Len() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.env.chunk.Len() - (offset + 2)
	if jump > 0xFFFF {
		c.error("Jump too long to patch")
		return
	}
	c.env.chunk.Code[offset] = byte(jump >> 8)
	c.env.chunk.Code[offset+1] = byte(jump)
}

// emitLoop backpatches a LOOP instruction to jump back to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OP_LOOP)
	offset := c.env.chunk.Len() + 2 - loopStart
	if offset > 0xFFFF {
		c.error("Loop body too large")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) addLiteral(v interface{}) int {
	idx, err := c.env.chunk.AddLiteral(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

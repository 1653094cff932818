// Package parser turns a token stream into an *ast.Program using a
// Pratt (precedence-climbing) expression parser paired with a recursive
// descent statement parser. The grammar follows
// original_source/ardan-lang's Parser.hpp/Scanner.cpp: statements, classes
// with public/protected/private visibility, try/catch/finally, for-in/
// for-of, and the expression forms enumerated in SPEC_FULL.md §C.
//
// The parser is peripheral per spec.md §1 ("an external collaborator");
// it exists here only so the repository runs end-to-end from source text
// down through the compiler and VM.
package parser

import (
	"fmt"

	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/lexer"
	"github.com/ardan-lang/ardan/pkg/token"
)

// ParseError is a syntax error raised while parsing.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("SyntaxError at %d:%d: %s", e.Line, e.Column, e.Message)
}

const (
	_ int = iota
	LOWEST
	ASSIGN
	CONDITIONAL
	NULLISH
	LOGIC_OR
	LOGIC_AND
	EQUALITY
	COMPARISON
	ADDITIVE
	MULTIPLICATIVE
	EXPONENT
	UNARY
	POSTFIX
	CALL
)

var precedences = map[token.Type]int{
	token.ASSIGN:     ASSIGN,
	token.PLUS_EQ:    ASSIGN,
	token.MINUS_EQ:   ASSIGN,
	token.STAR_EQ:    ASSIGN,
	token.SLASH_EQ:   ASSIGN,
	token.PERCENT_EQ: ASSIGN,
	token.QUESTION:   CONDITIONAL,
	token.NULLISH:    NULLISH,
	token.OR:         LOGIC_OR,
	token.AND:        LOGIC_AND,
	token.EQ:         EQUALITY,
	token.NOT_EQ:     EQUALITY,
	token.SEQ:        EQUALITY,
	token.SNEQ:       EQUALITY,
	token.LT:         COMPARISON,
	token.GT:         COMPARISON,
	token.LT_EQ:      COMPARISON,
	token.GT_EQ:      COMPARISON,
	token.INSTANCEOF:  COMPARISON,
	token.IN:         COMPARISON,
	token.PLUS:       ADDITIVE,
	token.MINUS:      ADDITIVE,
	token.STAR:       MULTIPLICATIVE,
	token.SLASH:      MULTIPLICATIVE,
	token.PERCENT:    MULTIPLICATIVE,
	token.STAR_STAR:  EXPONENT,
	token.LPAREN:     CALL,
	token.DOT:        CALL,
	token.OPTIONAL:   CALL,
	token.LBRACKET:   CALL,
	token.INCREMENT:  POSTFIX,
	token.DECREMENT:  POSTFIX,
}

// Parser consumes tokens from a Lexer and builds an *ast.Program.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []error

	prefixParseFns map[token.Type]func() ast.Expression
	infixParseFns  map[token.Type]func(ast.Expression) ast.Expression
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixParseFns = make(map[token.Type]func() ast.Expression)
	p.infixParseFns = make(map[token.Type]func(ast.Expression) ast.Expression)

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TEMPLATE_STRING, p.parseTemplateLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.UNDEFINED, p.parseUndefinedLiteral)
	p.registerPrefix(token.THIS, p.parseThisExpression)
	p.registerPrefix(token.SUPER, p.parseSuperExpression)
	p.registerPrefix(token.BANG, p.parseUnaryExpression)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.TYPEOF, p.parseUnaryExpression)
	p.registerPrefix(token.AWAIT, p.parseAwaitExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.DECREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.LPAREN, p.parseGroupedOrArrow)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionExpression)
	p.registerPrefix(token.ASYNC, p.parseFunctionExpression)
	p.registerPrefix(token.CLASS, p.parseClassExpression)
	p.registerPrefix(token.NEW, p.parseNewExpression)

	p.registerInfix(token.PLUS, p.parseBinaryExpression)
	p.registerInfix(token.MINUS, p.parseBinaryExpression)
	p.registerInfix(token.STAR, p.parseBinaryExpression)
	p.registerInfix(token.SLASH, p.parseBinaryExpression)
	p.registerInfix(token.PERCENT, p.parseBinaryExpression)
	p.registerInfix(token.STAR_STAR, p.parseBinaryExpressionRightAssoc)
	p.registerInfix(token.EQ, p.parseBinaryExpression)
	p.registerInfix(token.NOT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.SEQ, p.parseBinaryExpression)
	p.registerInfix(token.SNEQ, p.parseBinaryExpression)
	p.registerInfix(token.LT, p.parseBinaryExpression)
	p.registerInfix(token.GT, p.parseBinaryExpression)
	p.registerInfix(token.LT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.GT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.INSTANCEOF, p.parseBinaryExpression)
	p.registerInfix(token.IN, p.parseBinaryExpression)
	p.registerInfix(token.AND, p.parseLogicalExpression)
	p.registerInfix(token.OR, p.parseLogicalExpression)
	p.registerInfix(token.NULLISH, p.parseLogicalExpression)
	p.registerInfix(token.QUESTION, p.parseConditionalExpression)
	p.registerInfix(token.ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(token.PLUS_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.MINUS_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.STAR_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.SLASH_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.PERCENT_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)
	p.registerInfix(token.OPTIONAL, p.parseOptionalMemberExpression)
	p.registerInfix(token.LBRACKET, p.parseComputedMemberExpression)
	p.registerInfix(token.INCREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DECREMENT, p.parsePostfixUpdate)

	p.next()
	p.next()
	return p
}

func (p *Parser) registerPrefix(tt token.Type, fn func() ast.Expression) {
	p.prefixParseFns[tt] = fn
}
func (p *Parser) registerInfix(tt token.Type, fn func(ast.Expression) ast.Expression) {
	p.infixParseFns[tt] = fn
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

// Errors returns the syntax errors accumulated while parsing.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, &ParseError{Line: p.cur.Line, Column: p.cur.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(tt token.Type) bool {
	if p.cur.Type == tt {
		p.next()
		return true
	}
	p.errorf("expected %s, got %s (%q)", tt, p.cur.Type, p.cur.Literal)
	p.next()
	return false
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the whole token stream into a Program node.
func ParseProgram(src string) (*ast.Program, []error) {
	p := New(lexer.New(src))
	prog := &ast.Program{}
	for p.cur.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}
	return prog, p.errors
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.SEMICOLON:
		line := p.cur.Line
		p.next()
		return &ast.EmptyStatement{Line: line}
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.VAR, token.LET, token.CONST:
		stmt := p.parseVariableStatement()
		p.skipSemi()
		return stmt
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		stmt := p.parseReturnStatement()
		p.skipSemi()
		return stmt
	case token.BREAK:
		line := p.cur.Line
		p.next()
		p.skipSemi()
		return &ast.BreakStatement{Line: line}
	case token.CONTINUE:
		line := p.cur.Line
		p.next()
		p.skipSemi()
		return &ast.ContinueStatement{Line: line}
	case token.THROW:
		stmt := p.parseThrowStatement()
		p.skipSemi()
		return stmt
	case token.TRY:
		return p.parseTryStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.ENUM:
		return p.parseEnumDeclaration()
	case token.IMPORT:
		stmt := p.parseImportDeclaration()
		p.skipSemi()
		return stmt
	default:
		stmt := &ast.ExpressionStatement{Line: p.cur.Line, Expression: p.parseExpression(LOWEST)}
		p.skipSemi()
		return stmt
	}
}

func (p *Parser) skipSemi() {
	if p.cur.Type == token.SEMICOLON {
		p.next()
	}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Line: p.cur.Line}
	p.expect(token.LBRACE)
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		block.Body = append(block.Body, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return block
}

func (p *Parser) parseVariableStatement() *ast.VariableStatement {
	stmt := &ast.VariableStatement{Line: p.cur.Line, Kind: ast.Kind(p.cur.Literal)}
	p.next() // consume var/let/const
	for {
		decl := &ast.VariableDeclarator{Line: p.cur.Line}
		decl.Name = p.cur.Literal
		p.expect(token.IDENT)
		if p.cur.Type == token.ASSIGN {
			p.next()
			decl.Init = p.parseExpression(ASSIGN)
		}
		stmt.Declarations = append(stmt.Declarations, decl)
		if p.cur.Type == token.COMMA {
			p.next()
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	p.expect(token.LPAREN)
	test := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	consequent := p.parseStatement()
	var alternate ast.Statement
	if p.cur.Type == token.ELSE {
		p.next()
		alternate = p.parseStatement()
	}
	return &ast.IfStatement{Line: line, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	p.expect(token.LPAREN)
	test := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStatement{Line: line, Test: test, Body: body}
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	test := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	p.skipSemi()
	return &ast.DoWhileStatement{Line: line, Body: body, Test: test}
}

func (p *Parser) parseForStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	p.expect(token.LPAREN)

	var init ast.Statement
	if p.cur.Type == token.VAR || p.cur.Type == token.LET || p.cur.Type == token.CONST {
		init = p.parseVariableStatement()
	} else if p.cur.Type != token.SEMICOLON {
		init = &ast.ExpressionStatement{Line: p.cur.Line, Expression: p.parseExpression(LOWEST)}
	}

	if p.cur.Type == token.IN {
		p.next()
		object := p.parseExpression(LOWEST)
		p.expect(token.RPAREN)
		body := p.parseStatement()
		return &ast.ForInStatement{Line: line, Init: init, Object: object, Body: body}
	}
	if p.cur.Type == token.OF {
		p.next()
		right := p.parseExpression(LOWEST)
		p.expect(token.RPAREN)
		body := p.parseStatement()
		return &ast.ForOfStatement{Line: line, Left: init, Right: right, Body: body}
	}

	p.expect(token.SEMICOLON)
	var test ast.Expression
	if p.cur.Type != token.SEMICOLON {
		test = p.parseExpression(LOWEST)
	}
	p.expect(token.SEMICOLON)
	var update ast.Expression
	if p.cur.Type != token.RPAREN {
		update = p.parseExpression(LOWEST)
	}
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.ForStatement{Line: line, Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	var arg ast.Expression
	if p.cur.Type != token.SEMICOLON && p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		arg = p.parseExpression(LOWEST)
	}
	return &ast.ReturnStatement{Line: line, Argument: arg}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	return &ast.ThrowStatement{Line: line, Argument: p.parseExpression(LOWEST)}
}

func (p *Parser) parseTryStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	block := p.parseBlockStatement()
	stmt := &ast.TryStatement{Line: line, Block: block}
	if p.cur.Type == token.CATCH {
		p.next()
		clause := &ast.CatchClause{Line: p.cur.Line}
		if p.cur.Type == token.LPAREN {
			p.next()
			clause.Param = p.cur.Literal
			p.expect(token.IDENT)
			p.expect(token.RPAREN)
		}
		clause.Body = p.parseBlockStatement()
		stmt.Handler = clause
	}
	if p.cur.Type == token.FINALLY {
		p.next()
		stmt.Finally = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	line := p.cur.Line
	p.next()
	p.expect(token.LPAREN)
	disc := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	stmt := &ast.SwitchStatement{Line: line, Discriminant: disc}
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		c := &ast.SwitchCase{Line: p.cur.Line}
		if p.cur.Type == token.CASE {
			p.next()
			c.Test = p.parseExpression(LOWEST)
		} else {
			p.expect(token.DEFAULT)
		}
		p.expect(token.COLON)
		for p.cur.Type != token.CASE && p.cur.Type != token.DEFAULT && p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
			c.Consequent = append(c.Consequent, p.parseStatement())
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expect(token.RBRACE)
	return stmt
}

func (p *Parser) parseParamList() []*ast.Param {
	p.expect(token.LPAREN)
	var params []*ast.Param
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		param := &ast.Param{}
		if p.cur.Type == token.SPREAD {
			p.next()
			param.Rest = true
		}
		param.Name = p.cur.Literal
		p.expect(token.IDENT)
		if p.cur.Type == token.ASSIGN {
			p.next()
			param.Default = p.parseExpression(ASSIGN)
		}
		params = append(params, param)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	line := p.cur.Line
	p.next() // function
	name := p.cur.Literal
	p.expect(token.IDENT)
	params := p.parseParamList()
	body := p.parseBlockStatement()
	return &ast.FunctionDeclaration{Line: line, Name: name, Params: params, Body: body}
}

func (p *Parser) parseEnumDeclaration() ast.Statement {
	line := p.cur.Line
	p.next()
	name := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.LBRACE)
	decl := &ast.EnumDeclaration{Line: line, Name: name}
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		m := &ast.EnumMember{Line: p.cur.Line, Name: p.cur.Literal}
		p.expect(token.IDENT)
		if p.cur.Type == token.ASSIGN {
			p.next()
			m.Init = p.parseExpression(ASSIGN)
		}
		decl.Members = append(decl.Members, m)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return decl
}

func (p *Parser) parseImportDeclaration() ast.Statement {
	line := p.cur.Line
	p.next()
	src := p.cur.Literal
	p.expect(token.STRING)
	return &ast.ImportDeclaration{Line: line, Source: src}
}

func (p *Parser) parseVisibility() ast.Visibility {
	switch p.cur.Type {
	case token.PUBLIC:
		p.next()
		return ast.Public
	case token.PROTECTED:
		p.next()
		return ast.Protected
	case token.PRIVATE:
		p.next()
		return ast.Private
	default:
		return ast.Public
	}
}

func (p *Parser) parseClassBody(decl *ast.ClassDeclaration) {
	p.expect(token.LBRACE)
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		if p.cur.Type == token.SEMICOLON {
			p.next()
			continue
		}
		static := false
		if p.cur.Type == token.STATIC {
			static = true
			p.next()
		}
		vis := p.parseVisibility()

		methodKind := "method"
		if p.cur.Type == token.GET {
			methodKind = "get"
			p.next()
		} else if p.cur.Type == token.SET {
			methodKind = "set"
			p.next()
		}

		// A field declaration carries an explicit var/let/const kind
		// marker (spec.md §8 scenario 2: `private var s = 1;`); the
		// field-creation opcode matrix only distinguishes var from const
		// (pkg/bytecode/opcode.go "12 field-creation opcodes"), so `let`
		// is treated the same as `var`.
		fieldKind := ast.KindVar
		hasFieldKind := false
		switch p.cur.Type {
		case token.VAR, token.LET:
			hasFieldKind = true
			p.next()
		case token.CONST:
			hasFieldKind = true
			fieldKind = ast.KindConst
			p.next()
		}

		name := p.cur.Literal
		isConstructor := name == "constructor"
		p.expect(token.IDENT)

		if !hasFieldKind && p.cur.Type == token.LPAREN {
			line := p.cur.Line
			params := p.parseParamList()
			body := p.parseBlockStatement()
			kind := methodKind
			if isConstructor {
				kind = "constructor"
			}
			decl.Methods = append(decl.Methods, &ast.MethodDefinition{
				Line: line, Name: name, Kind: kind, Visibility: vis, Static: static,
				Function: &ast.FunctionDeclaration{Line: line, Name: name, Params: params, Body: body},
			})
			continue
		}

		field := &ast.FieldDefinition{Line: p.cur.Line, Name: name, Kind: fieldKind, Visibility: vis, Static: static}
		if p.cur.Type == token.ASSIGN {
			p.next()
			field.Init = p.parseExpression(ASSIGN)
		}
		p.skipSemi()
		decl.Fields = append(decl.Fields, field)
	}
	p.expect(token.RBRACE)
}

func (p *Parser) parseClassDeclaration() ast.Statement {
	line := p.cur.Line
	p.next()
	decl := &ast.ClassDeclaration{Line: line}
	if p.cur.Type == token.IDENT {
		decl.Name = p.cur.Literal
		p.next()
	}
	if p.cur.Type == token.EXTENDS {
		p.next()
		decl.Superclass = p.parseExpression(CALL)
	}
	p.parseClassBody(decl)
	return decl
}

func (p *Parser) parseClassExpression() ast.Expression {
	stmt := p.parseClassDeclaration().(*ast.ClassDeclaration)
	return &ast.ClassExpression{Line: stmt.Line, Class: stmt}
}

// --- Expressions ---------------------------------------------------------

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.cur.Type]
	if prefix == nil {
		p.errorf("unexpected token %s (%q)", p.cur.Type, p.cur.Literal)
		p.next()
		return nil
	}
	left := prefix()

	for p.cur.Type != token.SEMICOLON && precedence < p.curPrecedence() {
		infix := p.infixParseFns[p.cur.Type]
		if infix == nil {
			return left
		}
		left = infix(left)
	}

	if p.cur.Type == token.COMMA && precedence < LOWEST+1 && precedence == LOWEST {
		// sequence expression: only at statement-expression precedence
		seq := &ast.SequenceExpression{Line: p.cur.Line, Expressions: []ast.Expression{left}}
		for p.cur.Type == token.COMMA {
			p.next()
			seq.Expressions = append(seq.Expressions, p.parseExpression(ASSIGN))
		}
		return seq
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	id := &ast.Identifier{Line: p.cur.Line, Name: p.cur.Literal}
	p.next()
	return id
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Line: p.cur.Line, Value: parseFloat(p.cur.Literal)}
	p.next()
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	lit := &ast.StringLiteral{Line: p.cur.Line, Value: p.cur.Literal}
	p.next()
	return lit
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	lit := &ast.BoolLiteral{Line: p.cur.Line, Value: p.cur.Type == token.TRUE}
	p.next()
	return lit
}

func (p *Parser) parseNullLiteral() ast.Expression {
	lit := &ast.NullLiteral{Line: p.cur.Line}
	p.next()
	return lit
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	lit := &ast.UndefinedLiteral{Line: p.cur.Line}
	p.next()
	return lit
}

func (p *Parser) parseThisExpression() ast.Expression {
	e := &ast.ThisExpression{Line: p.cur.Line}
	p.next()
	return e
}

func (p *Parser) parseSuperExpression() ast.Expression {
	e := &ast.SuperExpression{Line: p.cur.Line}
	p.next()
	return e
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	op := string(p.cur.Type)
	if p.cur.Type == token.TYPEOF {
		op = "typeof"
	}
	line := p.cur.Line
	p.next()
	return &ast.UnaryExpression{Line: line, Operator: op, Argument: p.parseExpression(UNARY)}
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	line := p.cur.Line
	p.next()
	return &ast.AwaitExpression{Line: line, Argument: p.parseExpression(UNARY)}
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	op := string(p.cur.Type)
	line := p.cur.Line
	p.next()
	return &ast.UpdateExpression{Line: line, Operator: op, Prefix: true, Argument: p.parseExpression(UNARY)}
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	op := string(p.cur.Type)
	line := p.cur.Line
	p.next()
	return &ast.UpdateExpression{Line: line, Operator: op, Prefix: false, Argument: left}
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	op := binaryOperator(p.cur.Type)
	prec := p.curPrecedence()
	line := p.cur.Line
	p.next()
	right := p.parseExpression(prec)
	return &ast.BinaryExpression{Line: line, Operator: op, Left: left, Right: right}
}

// binaryOperator maps a token type to the operator spelling the compiler
// switches on; most tokens already spell themselves (token.PLUS == "+"),
// but keyword operators carry their upper-case token name instead.
func binaryOperator(tt token.Type) string {
	switch tt {
	case token.INSTANCEOF:
		return "instanceof"
	case token.IN:
		return "in"
	default:
		return string(tt)
	}
}

func (p *Parser) parseBinaryExpressionRightAssoc(left ast.Expression) ast.Expression {
	op := string(p.cur.Type)
	prec := p.curPrecedence()
	line := p.cur.Line
	p.next()
	right := p.parseExpression(prec - 1)
	return &ast.BinaryExpression{Line: line, Operator: op, Left: left, Right: right}
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	op := string(p.cur.Type)
	prec := p.curPrecedence()
	line := p.cur.Line
	p.next()
	right := p.parseExpression(prec)
	return &ast.LogicalExpression{Line: line, Operator: op, Left: left, Right: right}
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	line := p.cur.Line
	p.next()
	consequent := p.parseExpression(ASSIGN)
	p.expect(token.COLON)
	alternate := p.parseExpression(ASSIGN)
	return &ast.ConditionalExpression{Line: line, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	op := string(p.cur.Type)
	line := p.cur.Line
	p.next()
	value := p.parseExpression(ASSIGN - 1)
	return &ast.AssignmentExpression{Line: line, Operator: op, Target: left, Value: value}
}

func (p *Parser) parseArgumentList(end token.Type) []*ast.Argument {
	var args []*ast.Argument
	for p.cur.Type != end && p.cur.Type != token.EOF {
		arg := &ast.Argument{}
		if p.cur.Type == token.SPREAD {
			p.next()
			arg.Spread = true
		}
		arg.Value = p.parseExpression(ASSIGN)
		args = append(args, arg)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	p.expect(end)
	return args
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	line := p.cur.Line
	p.next() // consume (
	args := p.parseArgumentList(token.RPAREN)
	return &ast.CallExpression{Line: line, Callee: callee, Args: args}
}

func (p *Parser) parseMemberExpression(obj ast.Expression) ast.Expression {
	line := p.cur.Line
	p.next() // consume .
	name := p.cur.Literal
	p.expect(token.IDENT)
	return &ast.MemberExpression{Line: line, Object: obj, Property: &ast.Identifier{Line: line, Name: name}}
}

func (p *Parser) parseOptionalMemberExpression(obj ast.Expression) ast.Expression {
	line := p.cur.Line
	p.next() // consume ?.
	name := p.cur.Literal
	p.expect(token.IDENT)
	return &ast.MemberExpression{Line: line, Object: obj, Property: &ast.Identifier{Line: line, Name: name}, Optional: true}
}

func (p *Parser) parseComputedMemberExpression(obj ast.Expression) ast.Expression {
	line := p.cur.Line
	p.next() // consume [
	prop := p.parseExpression(LOWEST)
	p.expect(token.RBRACKET)
	return &ast.MemberExpression{Line: line, Object: obj, Property: prop, Computed: true}
}

func (p *Parser) parseNewExpression() ast.Expression {
	line := p.cur.Line
	p.next()
	callee := p.parseExpression(CALL)
	// parseExpression(CALL) stops before `(`, which also binds at CALL, so
	// the argument list is consumed here: `new Foo(a, b)` yields one
	// NewExpression, not a call of the result of `new Foo`.
	if p.cur.Type == token.LPAREN {
		p.next()
		return &ast.NewExpression{Line: line, Callee: callee, Args: p.parseArgumentList(token.RPAREN)}
	}
	if call, ok := callee.(*ast.CallExpression); ok {
		return &ast.NewExpression{Line: line, Callee: call.Callee, Args: call.Args}
	}
	return &ast.NewExpression{Line: line, Callee: callee}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	line := p.cur.Line
	p.next()
	elems := p.parseArgumentList(token.RBRACKET)
	return &ast.ArrayLiteral{Line: line, Elements: elems}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	line := p.cur.Line
	p.next()
	lit := &ast.ObjectLiteral{Line: line}
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		prop := &ast.ObjectProperty{Line: p.cur.Line}
		if p.cur.Type == token.LBRACKET {
			p.next()
			prop.KeyExpr = p.parseExpression(LOWEST)
			prop.Computed = true
			p.expect(token.RBRACKET)
		} else {
			prop.Key = p.cur.Literal
			p.next()
		}
		if p.cur.Type == token.COLON {
			p.next()
			prop.Value = p.parseExpression(ASSIGN)
		} else {
			prop.Shorthand = true
			prop.Value = &ast.Identifier{Line: prop.Line, Name: prop.Key}
		}
		lit.Properties = append(lit.Properties, prop)
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return lit
}

func (p *Parser) parseFunctionExpression() ast.Expression {
	line := p.cur.Line
	if p.cur.Type == token.ASYNC {
		p.next()
	}
	p.expect(token.FUNCTION)
	name := ""
	if p.cur.Type == token.IDENT {
		name = p.cur.Literal
		p.next()
	}
	params := p.parseParamList()
	body := p.parseBlockStatement()
	return &ast.FunctionExpression{Line: line, Name: name, Params: params, Body: body}
}

// parseGroupedOrArrow disambiguates `(expr)` from `(params) => body`.
// Only an empty `()` is recognized as a parameter list up front (see
// looksLikeArrowParams); anything else is parsed as a grouped expression
// and re-read as a parameter list by exprToParams when `=>` follows the
// closing paren. An unparenthesized single parameter (`x => x`) is not
// parsed as an arrow.
func (p *Parser) parseGroupedOrArrow() ast.Expression {
	line := p.cur.Line
	if p.looksLikeArrowParams() {
		params := p.parseParamList()
		p.expect(token.ARROW)
		return p.finishArrow(line, params)
	}
	p.next() // consume (
	expr := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	if p.cur.Type == token.ARROW {
		p.next()
		params := exprToParams(expr)
		return p.finishArrow(line, params)
	}
	return expr
}

func (p *Parser) finishArrow(line int, params []*ast.Param) ast.Expression {
	arrow := &ast.ArrowFunction{Line: line, Params: params}
	if p.cur.Type == token.LBRACE {
		arrow.Body = p.parseBlockStatement()
	} else {
		arrow.Expression = p.parseExpression(ASSIGN)
	}
	return arrow
}

// looksLikeArrowParams performs a bounded lookahead using the lexer's
// lack of backtracking by only trusting patterns it can fully disambiguate
// from the two already-buffered tokens (cur, peek): `()`, `(ident)` or
// `(ident,` followed eventually by `) =>` cannot be confirmed with two
// tokens alone, so this recognizes only the zero-arg `()` form; anything
// else falls
// back to grouped-expression parsing and is re-interpreted as an arrow
// only if `=>` immediately follows the closing paren.
func (p *Parser) looksLikeArrowParams() bool {
	return p.cur.Type == token.LPAREN && p.peek.Type == token.RPAREN
}

func exprToParams(expr ast.Expression) []*ast.Param {
	switch e := expr.(type) {
	case *ast.Identifier:
		return []*ast.Param{{Name: e.Name}}
	case *ast.SequenceExpression:
		var params []*ast.Param
		for _, sub := range e.Expressions {
			params = append(params, exprToParams(sub)...)
		}
		return params
	default:
		return nil
	}
}

func (p *Parser) parseTemplateLiteral() ast.Expression {
	raw := p.cur.Literal
	line := p.cur.Line
	p.next()
	quasis, exprSrcs := splitTemplate(raw)
	lit := &ast.TemplateLiteral{Line: line, Quasis: quasis}
	for _, src := range exprSrcs {
		sub := New(lexer.New(src))
		lit.Expressions = append(lit.Expressions, sub.parseExpression(LOWEST))
	}
	return lit
}

// splitTemplate splits a raw template body on ${...} boundaries, tracking
// brace depth so nested object literals inside an interpolation do not
// terminate it early.
func splitTemplate(raw string) (quasis []string, exprs []string) {
	var cur []byte
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			quasis = append(quasis, string(cur))
			cur = nil
			i += 2
			depth := 1
			start := i
			for i < len(raw) && depth > 0 {
				switch raw[i] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						exprs = append(exprs, raw[start:i])
					}
				}
				i++
			}
			continue
		}
		cur = append(cur, raw[i])
		i++
	}
	quasis = append(quasis, string(cur))
	return quasis, exprs
}

func parseFloat(s string) float64 {
	var v float64
	var neg bool
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	intPart := 0.0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		intPart = intPart*10 + float64(s[i]-'0')
	}
	v = intPart
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0.0
		div := 1.0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			frac = frac*10 + float64(s[i]-'0')
			div *= 10
		}
		v += frac / div
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		expNeg := false
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			expNeg = s[i] == '-'
			i++
		}
		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp = exp*10 + int(s[i]-'0')
		}
		for ; exp > 0; exp-- {
			if expNeg {
				v /= 10
			} else {
				v *= 10
			}
		}
	}
	if neg {
		v = -v
	}
	return v
}

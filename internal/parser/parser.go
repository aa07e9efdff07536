// Package parser implements the recursive-descent parser of spec.md §4.2,
// turning a token.Cursor into the surface ast.Program. The structure
// follows the teacher's hand-written recursive-descent parsers
// (lang/parse/parser.go, lang/yparse) rather than a parser-combinator or
// generated parser: one method per grammar production, explicit token
// lookahead, explicit error construction.
package parser

import (
	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/gmofishsauce/hithlain/internal/token"
)

type Parser struct {
	cur      *token.Cursor
	lastSpan source.Span
}

func New(tokens []token.Token) *Parser {
	return &Parser{cur: token.NewCursor(tokens)}
}

func (p *Parser) next() (token.Token, bool) {
	tok, ok := p.cur.Next()
	if ok {
		p.lastSpan = tok.Span
	}
	return tok, ok
}

func (p *Parser) unexpectedEnd(expected string) error {
	return &UnexpectedEndError{Expected: expected, Spn: p.lastSpan}
}

// expect consumes the next token if it has kind k, producing an
// UnexpectedTokenError (or UnexpectedEndError) otherwise.
func (p *Parser) expect(k token.Kind, expected string) (token.Token, error) {
	tok, ok := p.cur.Peek()
	if !ok {
		return token.Token{}, p.unexpectedEnd(expected)
	}
	if tok.Kind != k {
		return token.Token{}, &UnexpectedTokenError{Expected: expected, Found: tok, Spn: tok.Span}
	}
	p.next()
	return tok, nil
}

// allowComma consumes a single comma token if present; it's how spec.md
// §4.2's "commas are optional" requirement is implemented for input,
// output, and left-hand-side lists.
func (p *Parser) allowComma() {
	if tok, ok := p.cur.Peek(); ok && tok.Kind == token.KindComma {
		p.next()
	}
}

func (p *Parser) ParseVariable(expected string) (ast.Variable, error) {
	tok, ok := p.cur.Peek()
	if !ok {
		return ast.Variable{}, p.unexpectedEnd(expected)
	}
	if tok.Kind != token.KindName {
		return ast.Variable{}, &UnexpectedTokenError{Expected: expected, Found: tok, Spn: tok.Span}
	}
	p.next()
	return ast.Variable{Name: tok.Name, Span: tok.Span}, nil
}

func (p *Parser) parseConstant() (ast.Constant, source.Span, error) {
	tok, ok := p.cur.Peek()
	if !ok {
		return ast.Constant{}, source.Span{}, p.unexpectedEnd("bit literal")
	}
	if tok.Kind != token.KindBit {
		return ast.Constant{}, source.Span{}, &UnexpectedTokenError{Expected: "bit literal", Found: tok, Spn: tok.Span}
	}
	p.next()
	return ast.Constant{Value: tok.Bit}, tok.Span, nil
}

// parseAtom parses a variable, a constant, or a parenthesized
// sub-expression.
func (p *Parser) parseAtom() (ast.Expr, error) {
	tok, ok := p.cur.Peek()
	if !ok {
		return nil, p.unexpectedEnd("variable, constant value or parenthesized expression")
	}

	switch tok.Kind {
	case token.KindName:
		v, err := p.ParseVariable("variable")
		if err != nil {
			return nil, err
		}
		return ast.AtomVariable{Variable: v}, nil
	case token.KindBit:
		c, spn, err := p.parseConstant()
		if err != nil {
			return nil, err
		}
		return ast.AtomConstant{Constant: c, Spn: spn}, nil
	case token.KindLParen:
		start := tok.Span
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(token.KindRParen, "closing parenthesis")
		if err != nil {
			return nil, err
		}
		return ast.AtomExpr{Inner: inner, Spn: source.Merge(start, closing.Span)}, nil
	default:
		return nil, &UnexpectedTokenError{
			Expected: "variable, constant value or parenthesized expression",
			Found:    tok,
			Spn:      tok.Span,
		}
	}
}

func binaryActionFor(k token.Kind) (ast.BinaryAction, bool) {
	switch k {
	case token.KindAnd:
		return ast.ActionAnd, true
	case token.KindOr:
		return ast.ActionOr, true
	case token.KindNand:
		return ast.ActionNand, true
	case token.KindNor:
		return ast.ActionNor, true
	case token.KindXor:
		return ast.ActionXor, true
	case token.KindXnor:
		return ast.ActionXnor, true
	case token.KindEq: // '==' aliases to xnor (spec.md §4.2)
		return ast.ActionXnor, true
	default:
		return 0, false
	}
}

// parseBinary parses "atom (binop atom)*", left-associative with a
// single precedence class (spec.md §3, §4.2).
func (p *Parser) parseBinary() (ast.Expr, error) {
	root, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.cur.Peek()
		if !ok {
			break
		}
		action, isOp := binaryActionFor(tok.Kind)
		if !isOp {
			break
		}
		opSpan := tok.Span
		p.next()

		right, err := p.parseAtom()
		if err != nil {
			return nil, &RightSideOfExprError{Inner: err, Spn: opSpan}
		}

		root = ast.BinaryOp{A: root, B: right, Action: action}
	}

	return root, nil
}

// parseCall parses "name '(' atom (',' atom)* ')'".
func (p *Parser) parseCall() (ast.Expr, error) {
	circuit, err := p.ParseVariable("a circuit name to use")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindLParen, "("); err != nil {
		return nil, err
	}

	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	args := []ast.Expr{first}

	for {
		tok, ok := p.cur.Peek()
		if !ok {
			return nil, p.unexpectedEnd("`,` or closing parenthesis")
		}
		if tok.Kind != token.KindComma {
			break
		}
		p.next()
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	closing, err := p.expect(token.KindRParen, "closing parenthesis")
	if err != nil {
		return nil, err
	}

	return ast.Call{Circuit: circuit, Args: args, Spn: source.Merge(circuit.Span, closing.Span)}, nil
}

// parseExpr dispatches to a call, a unary "not", or a binary chain,
// using two-token lookahead to tell a call ("name(") from a plain atom.
func (p *Parser) parseExpr() (ast.Expr, error) {
	if a, b, ok := p.cur.Peek2(); ok && a.Kind == token.KindName && b.Kind == token.KindLParen {
		return p.parseCall()
	}

	if tok, ok := p.cur.Peek(); ok && tok.Kind == token.KindNot {
		start := tok.Span
		p.next()
		if _, err := p.expect(token.KindLParen, "("); err != nil {
			return nil, err
		}
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(token.KindRParen, ")")
		if err != nil {
			return nil, err
		}
		return ast.UnaryNot{Inner: inner, Spn: source.Merge(start, closing.Span)}, nil
	}

	return p.parseBinary()
}

// parseStatement parses "assert expr ';'" or "lhs '=' expr ';'".
func (p *Parser) parseStatement() (ast.Statement, error) {
	if tok, ok := p.cur.Peek(); ok && tok.Kind == token.KindAssert {
		start := tok.Span
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		semi, err := p.expect(token.KindSemicolon, "`;`")
		if err != nil {
			return nil, err
		}
		return ast.Assert{Expr: expr, Spn: source.Merge(start, semi.Span)}, nil
	}

	first, err := p.ParseVariable("a variable to assign the expression outcome to")
	if err != nil {
		return nil, err
	}
	vars := []ast.Variable{first}

	for {
		p.allowComma()
		tok, ok := p.cur.Peek()
		if !ok || tok.Kind != token.KindName {
			break
		}
		v, err := p.ParseVariable("another variable to assign the expression outcome to")
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	if _, err := p.expect(token.KindAssign, "`=`"); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.KindSemicolon, "`;` or binary operator"); err != nil {
		return nil, err
	}

	return ast.Assignment{Into: vars, Expr: expr}, nil
}

// parseStatementOrTime parses a time directive or falls through to a
// statement.
func (p *Parser) parseStatementOrTime() (ast.StatementOrTime, error) {
	tok, ok := p.cur.Peek()
	if !ok {
		return nil, p.unexpectedEnd("statement or time specification")
	}

	switch tok.Kind {
	case token.KindAfter, token.KindAt:
		kind := tok.Kind
		p.next()
		timeTok, err := p.expect(token.KindTime, "a time value")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindColon, "`:`"); err != nil {
			return nil, err
		}
		if kind == token.KindAfter {
			return ast.TimeItem{Time: ast.After{Nanos: timeTok.Nanos}}, nil
		}
		return ast.TimeItem{Time: ast.At{Nanos: timeTok.Nanos}}, nil
	default:
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ast.StmtItem{Statement: stmt}, nil
	}
}

// parseNameList parses an optionally-comma-separated run of variables,
// stopping at stop.
func (p *Parser) parseNameList(stop token.Kind, description string) ([]ast.Variable, error) {
	var vars []ast.Variable
	for {
		tok, ok := p.cur.Peek()
		if !ok {
			return nil, p.unexpectedEnd(description)
		}
		if tok.Kind == stop {
			return vars, nil
		}
		v, err := p.ParseVariable(description)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		p.allowComma()
	}
}

func (p *Parser) parseCircuit() (ast.Circuit, error) {
	p.next() // 'circuit'
	name, err := p.ParseVariable("circuit name")
	if err != nil {
		return ast.Circuit{}, err
	}
	if _, err := p.expect(token.KindColon, "`:` in circuit definition"); err != nil {
		return ast.Circuit{}, err
	}

	inputs, err := p.parseNameList(token.KindArrow, "input name or ->")
	if err != nil {
		return ast.Circuit{}, err
	}
	if _, err := p.expect(token.KindArrow, "->"); err != nil {
		return ast.Circuit{}, err
	}

	outputs, err := p.parseNameList(token.KindLBrace, "output name or {")
	if err != nil {
		return ast.Circuit{}, err
	}
	if _, err := p.expect(token.KindLBrace, "{"); err != nil {
		return ast.Circuit{}, err
	}

	var body []ast.Statement
	for {
		tok, ok := p.cur.Peek()
		if !ok {
			return ast.Circuit{}, p.unexpectedEnd("statement or `}`")
		}
		if tok.Kind == token.KindRBrace {
			p.next()
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return ast.Circuit{}, err
		}
		body = append(body, stmt)
	}

	return ast.Circuit{Name: name, Inputs: inputs, Outputs: outputs, Body: body}, nil
}

func (p *Parser) parseTimedBody(description string) ([]ast.StatementOrTime, error) {
	if _, err := p.expect(token.KindLBrace, "{"); err != nil {
		return nil, err
	}
	var body []ast.StatementOrTime
	for {
		tok, ok := p.cur.Peek()
		if !ok {
			return nil, p.unexpectedEnd(description)
		}
		if tok.Kind == token.KindRBrace {
			p.next()
			break
		}
		item, err := p.parseStatementOrTime()
		if err != nil {
			return nil, err
		}
		body = append(body, item)
	}
	return body, nil
}

func (p *Parser) parseTest() (ast.Test, error) {
	p.next() // 'test'
	name, err := p.ParseVariable("test name")
	if err != nil {
		return ast.Test{}, err
	}
	body, err := p.parseTimedBody("statement, time specification, or `}`")
	if err != nil {
		return ast.Test{}, err
	}
	return ast.Test{Name: name, Body: body}, nil
}

func (p *Parser) parseProcess() (ast.Process, error) {
	p.next() // 'process'
	name, err := p.ParseVariable("process name")
	if err != nil {
		return ast.Process{}, err
	}
	body, err := p.parseTimedBody("statement, time specification, or `}`")
	if err != nil {
		return ast.Process{}, err
	}
	return ast.Process{Name: name, Body: body}, nil
}

// ParseProgram parses a whole source file: a sequence of circuit, test,
// and process items (spec.md §4.2 grammar, item* production).
func (p *Parser) ParseProgram() (ast.Program, error) {
	var prog ast.Program
	for {
		tok, ok := p.cur.Peek()
		if !ok {
			break
		}
		switch tok.Kind {
		case token.KindCircuit:
			c, err := p.parseCircuit()
			if err != nil {
				return ast.Program{}, err
			}
			prog.Circuits = append(prog.Circuits, c)
		case token.KindTest:
			t, err := p.parseTest()
			if err != nil {
				return ast.Program{}, err
			}
			prog.Tests = append(prog.Tests, t)
		case token.KindProcess:
			pr, err := p.parseProcess()
			if err != nil {
				return ast.Program{}, err
			}
			prog.Processes = append(prog.Processes, pr)
		default:
			return ast.Program{}, &UnexpectedTokenError{
				Expected: "`circuit`, `test`, or `process`",
				Found:    tok,
				Spn:      tok.Span,
			}
		}
	}
	return prog, nil
}

// Package parser implements a recursive-descent parser that turns a token
// stream from internal/lexer into the untyped AST defined in internal/ast.
// vslc instead generates its parser with goyacc from a grammar file; this
// front end is hand-written because the surface language here has no LALR
// grammar checked into the retrieved example pack to regenerate from, but it
// follows the same contract vslc's frontend does: Parse takes source text
// and returns a syntax tree (here, a slice of top-level *ast.Expression) or
// a ParseError.
package parser

import (
	"fmt"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/lexer"
	"github.com/art-lang/art/internal/token"
)

// ParseError reports a syntax error at a source position.
type ParseError struct {
	Line, Pos int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Pos, e.Msg)
}

// Parser turns a token stream into a sequence of top level expressions.
type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
}

// Parse parses src and returns the top-level untyped AST expressions, or
// the first ParseError encountered.
func Parse(src string) (exprs []*ast.Expression, err error) {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	p.advance()

	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()

	p.skipNewlines()
	for p.cur.Kind != token.EOF {
		exprs = append(exprs, p.parseTopLevel())
		p.skipNewlines()
	}
	return exprs, nil
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) fail(format string, args ...interface{}) {
	panic(&ParseError{Line: p.cur.Line, Pos: p.cur.Pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur.Kind == token.Error {
		p.fail("%s", p.cur.Val)
	}
	if p.cur.Kind != k {
		p.fail("expected %s, got %s", k, p.cur.Kind)
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) skipNewlines() {
	for p.cur.Kind == token.Newline {
		p.advance()
	}
}

// endOfStatement consumes the newline(s) that terminate a statement. A
// closing brace may also end a statement without a preceding newline.
func (p *Parser) endOfStatement() {
	if p.cur.Kind == token.RBrace || p.cur.Kind == token.EOF {
		return
	}
	p.expect(token.Newline)
	p.skipNewlines()
}

func (p *Parser) parseTopLevel() *ast.Expression {
	switch p.cur.Kind {
	case token.KwFn:
		return p.parseFunc()
	case token.KwExtern:
		return p.parseExtern()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseExtern() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	tok := p.expect(token.StringLit)
	e := &ast.Expression{Kind: ast.ExternModule, Line: line, Pos: pos, Path: tok.Val}
	p.endOfStatement()
	return e
}

func (p *Parser) parseFunc() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	name := p.expect(token.Identifier).Val
	p.expect(token.LParen)
	var params []ast.Param
	for p.cur.Kind != token.RParen {
		pname := p.expect(token.Identifier).Val
		p.expect(token.Colon)
		ptyp := p.parseType()
		params = append(params, ast.Param{Name: pname, Type: ptyp})
		if p.cur.Kind == token.Comma {
			p.advance()
		}
	}
	p.expect(token.RParen)
	ret := ast.None
	if p.cur.Kind == token.Arrow {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.Expression{
		Kind: ast.FuncStmt, Line: line, Pos: pos,
		Name: name, Params: params, ReturnType: ret, Body: body,
	}
}

func (p *Parser) parseType() ast.Type {
	switch p.cur.Kind {
	case token.KwI32:
		p.advance()
		return ast.I32
	case token.KwI64:
		p.advance()
		return ast.I64
	case token.KwBool:
		p.advance()
		return ast.Boolean
	case token.KwString:
		p.advance()
		return ast.Str
	case token.KwList:
		p.advance()
		p.expect(token.Lt)
		elem := p.parseType()
		p.expect(token.Gt)
		return ast.ListOf(elem)
	default:
		p.fail("expected type, got %s", p.cur.Kind)
		return ast.None
	}
}

func (p *Parser) parseBlock() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.expect(token.LBrace)
	p.skipNewlines()
	var stmts []*ast.Expression
	for p.cur.Kind != token.RBrace {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	p.expect(token.RBrace)
	return &ast.Expression{Kind: ast.BlockStmt, Line: line, Pos: pos, Stmts: stmts}
}

func (p *Parser) parseStatement() *ast.Expression {
	switch p.cur.Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwBreak:
		e := &ast.Expression{Kind: ast.BreakStmt, Line: p.cur.Line, Pos: p.cur.Pos}
		p.advance()
		p.endOfStatement()
		return e
	case token.KwPrint:
		return p.parsePrint()
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseLet() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	name := p.expect(token.Identifier).Val
	declType := ast.None
	if p.cur.Kind == token.Colon {
		p.advance()
		declType = p.parseType()
	}
	p.expect(token.Assign)
	value := p.parseExpr()
	e := &ast.Expression{Kind: ast.LetStmt, Line: line, Pos: pos, Name: name, DeclType: declType, Value: value}
	p.endOfStatement()
	return e
}

func (p *Parser) parseIf() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	// Parentheses around the condition are optional: `(cond)` parses as a
	// Grouping expression.
	cond := p.parseExpr()
	then := p.parseBlock()
	var els *ast.Expression
	if p.cur.Kind == token.KwElse {
		p.advance()
		if p.cur.Kind == token.KwIf {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.Expression{Kind: ast.IfStmt, Line: line, Pos: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.Expression{Kind: ast.WhileStmt, Line: line, Pos: pos, Cond: cond, Then: body}
}

func (p *Parser) parseFor() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	v := p.expect(token.Identifier).Val
	p.expect(token.KwIn)
	start := p.parseExpr()
	p.expect(token.DotDot)
	end := p.parseExpr()
	var step *ast.Expression
	if p.cur.Kind == token.KwStep {
		p.advance()
		step = p.parseExpr()
	} else {
		step = &ast.Expression{Kind: ast.Number, NumVal: 1}
	}
	body := p.parseBlock()
	return &ast.Expression{Kind: ast.ForStmt, Line: line, Pos: pos, Var: v, Start: start, End: end, Step: step, Body: body}
}

func (p *Parser) parseReturn() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	var value *ast.Expression
	if p.cur.Kind != token.Newline && p.cur.Kind != token.RBrace {
		value = p.parseExpr()
	}
	e := &ast.Expression{Kind: ast.ReturnStmt, Line: line, Pos: pos, Value: value}
	p.endOfStatement()
	return e
}

func (p *Parser) parsePrint() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	p.advance()
	p.expect(token.LParen)
	v := p.parseExpr()
	p.expect(token.RParen)
	e := &ast.Expression{Kind: ast.Print, Line: line, Pos: pos, Value: v}
	p.endOfStatement()
	return e
}

// parseExprStatement parses a bare expression statement: either an
// assignment (`name = expr`, `name[i] = expr`) or a call used for its
// side effects.
func (p *Parser) parseExprStatement() *ast.Expression {
	line, pos := p.cur.Line, p.cur.Pos
	expr := p.parseExpr()

	switch p.cur.Kind {
	case token.Assign:
		p.advance()
		value := p.parseExpr()
		var out *ast.Expression
		switch expr.Kind {
		case ast.Variable:
			out = &ast.Expression{Kind: ast.AssignStmt, Line: line, Pos: pos, Name: expr.Name, Value: value}
		case ast.ListIndex:
			out = &ast.Expression{
				Kind: ast.ListAssign, Line: line, Pos: pos,
				Name: expr.List.Name, Index: expr.Index, Value: value,
			}
		default:
			p.fail("invalid assignment target")
		}
		p.endOfStatement()
		return out
	default:
		p.endOfStatement()
		return expr
	}
}

// Precedence climbing for binary operators, lowest to highest.
var binPrec = map[token.Kind]int{
	token.OrOr:   1,
	token.AndAnd: 2,
	token.EqEq:   3, token.NotEq: 3,
	token.Lt: 4, token.Le: 4, token.Gt: 4, token.Ge: 4,
	token.Plus: 5, token.Minus: 5,
	token.Star: 6, token.Slash: 6, token.Percent: 6,
}

var binOpText = map[token.Kind]string{
	token.OrOr: "||", token.AndAnd: "&&",
	token.EqEq: "==", token.NotEq: "!=",
	token.Lt: "<", token.Le: "<=", token.Gt: ">", token.Ge: ">=",
	token.Plus: "+", token.Minus: "-",
	token.Star: "*", token.Slash: "/", token.Percent: "%",
}

func (p *Parser) parseExpr() *ast.Expression {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) *ast.Expression {
	left := p.parseUnary()
	for {
		prec, ok := binPrec[p.cur.Kind]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.cur
		p.advance()
		right := p.parseBinary(prec + 1)
		left = &ast.Expression{
			Kind: ast.Binary, Line: opTok.Line, Pos: opTok.Pos,
			Op: binOpText[opTok.Kind], Left: left, Right: right,
		}
	}
}

func (p *Parser) parseUnary() *ast.Expression {
	if p.cur.Kind == token.Bang {
		line, pos := p.cur.Line, p.cur.Pos
		p.advance()
		operand := p.parseUnary()
		return &ast.Expression{Kind: ast.Binary, Line: line, Pos: pos, Op: "!", Right: operand}
	}
	if p.cur.Kind == token.Minus {
		line, pos := p.cur.Line, p.cur.Pos
		p.advance()
		operand := p.parseUnary()
		zero := &ast.Expression{Kind: ast.Number, Line: line, Pos: pos}
		return &ast.Expression{Kind: ast.Binary, Line: line, Pos: pos, Op: "-", Left: zero, Right: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Expression {
	e := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LParen:
			line, pos := p.cur.Line, p.cur.Pos
			p.advance()
			var args []*ast.Expression
			for p.cur.Kind != token.RParen {
				args = append(args, p.parseExpr())
				if p.cur.Kind == token.Comma {
					p.advance()
				}
			}
			p.expect(token.RParen)
			e = &ast.Expression{Kind: ast.CallStmt, Line: line, Pos: pos, Callee: e, Args: args}
		case token.LBracket:
			line, pos := p.cur.Line, p.cur.Pos
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			e = &ast.Expression{Kind: ast.ListIndex, Line: line, Pos: pos, List: e, Index: idx}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() *ast.Expression {
	tok := p.cur
	switch tok.Kind {
	case token.Number:
		p.advance()
		return parseNumberLiteral(tok)
	case token.StringLit:
		p.advance()
		return &ast.Expression{Kind: ast.String, Line: tok.Line, Pos: tok.Pos, StrVal: tok.Val}
	case token.KwTrue:
		p.advance()
		return &ast.Expression{Kind: ast.Bool, Line: tok.Line, Pos: tok.Pos, BoolVal: true}
	case token.KwFalse:
		p.advance()
		return &ast.Expression{Kind: ast.Bool, Line: tok.Line, Pos: tok.Pos, BoolVal: false}
	case token.KwLen:
		p.advance()
		p.expect(token.LParen)
		v := p.parseExpr()
		p.expect(token.RParen)
		return &ast.Expression{Kind: ast.Len, Line: tok.Line, Pos: tok.Pos, Value: v}
	case token.Identifier:
		p.advance()
		return &ast.Expression{Kind: ast.Variable, Line: tok.Line, Pos: tok.Pos, Name: tok.Val}
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen)
		return &ast.Expression{Kind: ast.Grouping, Line: tok.Line, Pos: tok.Pos, Inner: inner}
	case token.LBracket:
		p.advance()
		var elems []*ast.Expression
		for p.cur.Kind != token.RBracket {
			elems = append(elems, p.parseExpr())
			if p.cur.Kind == token.Comma {
				p.advance()
			}
		}
		p.expect(token.RBracket)
		return &ast.Expression{Kind: ast.List, Line: tok.Line, Pos: tok.Pos, Elements: elems}
	default:
		p.fail("unexpected token %s in expression", tok.Kind)
		return nil
	}
}

func parseNumberLiteral(tok token.Token) *ast.Expression {
	s := tok.Val
	is64 := false
	if len(s) > 0 && s[len(s)-1] == 'L' {
		is64 = true
		s = s[:len(s)-1]
	}
	var v int64
	for _, c := range s {
		v = v*10 + int64(c-'0')
	}
	if v > (1<<31 - 1) {
		is64 = true
	}
	return &ast.Expression{Kind: ast.Number, Line: tok.Line, Pos: tok.Pos, NumVal: v, Is64: is64}
}

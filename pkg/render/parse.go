package render

import "errors"

// parser builds the node tree from the segments of one template.
type parser struct {
	src  *source
	segs []segment
	next int
}

// statement is a tokenized `{% %}` tag.
type statement struct {
	seg     segment
	keyword string
	args    []token
}

func parse(src *source) ([]Node, error) {
	segs, err := src.split()
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, segs: segs}

	nodes, stop, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, src.errorf(ErrSyntax, stop.seg.off, stop.keyword, "unexpected tag")
	}
	return nodes, nil
}

// parseNodes consumes segments until EOF or a statement whose keyword is in
// stops. The stopping statement is returned so callers can inspect it; any
// other block-closing keyword is a syntax error.
func (p *parser) parseNodes(stops ...string) ([]Node, *statement, error) {
	var nodes []Node

	for p.next < len(p.segs) {
		seg := p.segs[p.next]
		p.next++

		switch seg.kind {
		case segText:
			nodes = append(nodes, &TextNode{Pos: seg.pos, Text: seg.body})

		case segOutput:
			toks, err := p.src.tokenize(seg)
			if err != nil {
				return nil, nil, err
			}
			if len(toks) == 0 {
				return nil, nil, p.src.errorf(ErrSyntax, seg.off, "{{ }}", "empty expression")
			}
			expr, err := p.parseExpr(toks, seg.off)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, &OutputNode{Pos: seg.pos, Expr: expr})

		case segStatement:
			stmt, err := p.statement(seg)
			if err != nil {
				return nil, nil, err
			}
			for _, stop := range stops {
				if stmt.keyword == stop {
					return nodes, stmt, nil
				}
			}

			var node Node
			switch stmt.keyword {
			case "for":
				node, err = p.parseFor(stmt)
			case "if":
				node, err = p.parseIf(stmt)
			default:
				err = p.src.errorf(ErrSyntax, seg.off, stmt.keyword, "unexpected tag")
			}
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, node)
		}
	}

	return nodes, nil, nil
}

func (p *parser) statement(seg segment) (*statement, error) {
	toks, err := p.src.tokenize(seg)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 || toks[0].kind != tokName {
		return nil, p.src.errorf(ErrSyntax, seg.off, seg.body, "tag must start with a keyword")
	}
	stmt := &statement{seg: seg, keyword: toks[0].raw, args: toks[1:]}

	switch stmt.keyword {
	case "endfor", "endif", "else":
		if len(stmt.args) > 0 {
			return nil, p.src.errorf(ErrSyntax, stmt.args[0].off, stmt.keyword, "takes no arguments")
		}
	}
	return stmt, nil
}

// parseFor handles `for NAME in EXPR` through the matching endfor.
func (p *parser) parseFor(stmt *statement) (Node, error) {
	args := stmt.args
	if len(args) < 3 || args[0].kind != tokName || args[1].kind != tokName || args[1].raw != "in" {
		return nil, p.src.errorf(ErrSyntax, stmt.seg.off, "for", "expected `for NAME in EXPR`")
	}
	if isKeyword(args[0].raw) {
		return nil, p.src.errorf(ErrSyntax, args[0].off, args[0].raw, "reserved word used as loop variable")
	}

	seq, err := p.parseExpr(args[2:], args[2].off)
	if err != nil {
		return nil, err
	}

	body, stop, err := p.parseNodes("endfor")
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, p.src.errorf(ErrSyntax, stmt.seg.off, "for", "missing endfor")
	}

	return &ForNode{Pos: stmt.seg.pos, Var: args[0].raw, Seq: seq, Body: body}, nil
}

// parseIf handles `if COND` with optional elif/else branches through endif.
func (p *parser) parseIf(stmt *statement) (Node, error) {
	if len(stmt.args) == 0 {
		return nil, p.src.errorf(ErrSyntax, stmt.seg.off, stmt.keyword, "missing condition")
	}
	cond, err := p.parseExpr(stmt.args, stmt.args[0].off)
	if err != nil {
		return nil, err
	}

	then, stop, err := p.parseNodes("elif", "else", "endif")
	if err != nil {
		return nil, err
	}
	node := &IfNode{Pos: stmt.seg.pos, Cond: cond, Then: then}

	if stop == nil {
		return nil, p.src.errorf(ErrSyntax, stmt.seg.off, "if", "missing endif")
	}
	switch stop.keyword {
	case "elif":
		nested, err := p.parseIf(stop)
		if err != nil {
			return nil, err
		}
		node.Else = []Node{nested}
	case "else":
		els, end, err := p.parseNodes("endif")
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, p.src.errorf(ErrSyntax, stmt.seg.off, "if", "missing endif")
		}
		node.Else = els
	}
	return node, nil
}

// exprParser is a recursive descent parser over one tag's tokens. Precedence
// from loosest: or, and, not, + -, unary -, | filter, .attr.
type exprParser struct {
	src  *source
	toks []token
	pos  int
	end  int
}

func (p *parser) parseExpr(toks []token, off int) (Expr, error) {
	ep := &exprParser{src: p.src, toks: toks, end: off}
	if len(toks) > 0 {
		last := toks[len(toks)-1]
		ep.end = last.off + len(last.raw)
	}

	expr, err := ep.parseOr()
	if err != nil {
		return nil, err
	}
	if ep.pos < len(ep.toks) {
		tok := ep.toks[ep.pos]
		return nil, p.src.errorf(ErrSyntax, tok.off, tok.raw, "unexpected token")
	}
	return expr, nil
}

func (ep *exprParser) peek() (token, bool) {
	if ep.pos >= len(ep.toks) {
		return token{}, false
	}
	return ep.toks[ep.pos], true
}

func (ep *exprParser) peekName(name string) bool {
	tok, ok := ep.peek()
	return ok && tok.kind == tokName && tok.raw == name
}

func (ep *exprParser) expect(kind tokenKind, what string) (token, error) {
	tok, ok := ep.peek()
	if !ok {
		return token{}, ep.src.errorf(ErrSyntax, ep.end, what, "unexpected end of expression")
	}
	if tok.kind != kind {
		return token{}, ep.src.errorf(ErrSyntax, tok.off, tok.raw, "expected %s", what)
	}
	ep.pos++
	return tok, nil
}

func (ep *exprParser) parseOr() (Expr, error) {
	left, err := ep.parseAnd()
	if err != nil {
		return nil, err
	}
	for ep.peekName("or") {
		ep.pos++
		right, err := ep.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: left.Position(), Op: "or", L: left, R: right}
	}
	return left, nil
}

func (ep *exprParser) parseAnd() (Expr, error) {
	left, err := ep.parseNot()
	if err != nil {
		return nil, err
	}
	for ep.peekName("and") {
		ep.pos++
		right, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: left.Position(), Op: "and", L: left, R: right}
	}
	return left, nil
}

func (ep *exprParser) parseNot() (Expr, error) {
	if ep.peekName("not") {
		tok := ep.toks[ep.pos]
		ep.pos++
		x, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: ep.src.pos(tok.off), Op: "not", X: x}, nil
	}
	return ep.parseAdditive()
}

func (ep *exprParser) parseAdditive() (Expr, error) {
	left, err := ep.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := ep.peek()
		if !ok || (tok.kind != tokPlus && tok.kind != tokMinus) {
			return left, nil
		}
		ep.pos++
		right, err := ep.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: left.Position(), Op: tok.raw, L: left, R: right}
	}
}

func (ep *exprParser) parseUnary() (Expr, error) {
	if tok, ok := ep.peek(); ok && tok.kind == tokMinus {
		ep.pos++
		x, err := ep.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: ep.src.pos(tok.off), Op: "-", X: x}, nil
	}
	return ep.parseFilter()
}

// parseFilter accepts only the format filter. Its receiver must be a string
// literal so the spec is validated here rather than on every render.
func (ep *exprParser) parseFilter() (Expr, error) {
	x, err := ep.parsePostfix()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := ep.peek()
		if !ok || tok.kind != tokPipe {
			return x, nil
		}
		ep.pos++

		name, err := ep.expect(tokName, "filter name")
		if err != nil {
			return nil, err
		}
		if name.raw != "format" {
			return nil, ep.src.errorf(ErrSyntax, name.off, name.raw, "unknown filter")
		}

		lit, ok := x.(*LiteralExpr)
		raw, isString := "", false
		if ok {
			raw, isString = lit.Value.(string)
		}
		if !isString {
			return nil, ep.src.errorf(ErrMalformedFormatSpec, tok.off, x.String(), "format spec must be a string literal")
		}
		spec, err := ParseFormatSpec(raw)
		if err != nil {
			return nil, &Error{
				Err:      ErrMalformedFormatSpec,
				Template: ep.src.name,
				Name:     raw,
				Pos:      lit.Pos,
				Detail:   unwrapDetail(err),
			}
		}

		if _, err := ep.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		arg, err := ep.parseOr()
		if err != nil {
			return nil, err
		}
		if next, ok := ep.peek(); ok && next.kind == tokComma {
			return nil, ep.src.errorf(ErrMalformedFormatSpec, next.off, raw, "format takes exactly one value")
		}
		if _, err := ep.expect(tokRParen, ")"); err != nil {
			return nil, err
		}

		x = &FormatExpr{Pos: lit.Pos, Spec: spec, Arg: arg}
	}
}

func (ep *exprParser) parsePostfix() (Expr, error) {
	x, err := ep.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := ep.peek()
		if !ok || tok.kind != tokDot {
			return x, nil
		}
		ep.pos++
		name, err := ep.expect(tokName, "attribute name")
		if err != nil {
			return nil, err
		}
		x = &AttrExpr{Pos: x.Position(), X: x, Name: name.raw}
	}
}

func (ep *exprParser) parsePrimary() (Expr, error) {
	tok, ok := ep.peek()
	if !ok {
		return nil, ep.src.errorf(ErrSyntax, ep.end, "", "unexpected end of expression")
	}
	ep.pos++
	pos := ep.src.pos(tok.off)

	switch tok.kind {
	case tokNumber, tokString:
		return &LiteralExpr{Pos: pos, Value: tok.val}, nil
	case tokName:
		switch tok.raw {
		case "true", "True":
			return &LiteralExpr{Pos: pos, Value: true}, nil
		case "false", "False":
			return &LiteralExpr{Pos: pos, Value: false}, nil
		}
		if isKeyword(tok.raw) {
			return nil, ep.src.errorf(ErrSyntax, tok.off, tok.raw, "unexpected keyword")
		}
		return &NameExpr{Pos: pos, Name: tok.raw}, nil
	case tokLParen:
		x, err := ep.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := ep.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, ep.src.errorf(ErrSyntax, tok.off, tok.raw, "unexpected token")
	}
}

func isKeyword(name string) bool {
	switch name {
	case "for", "in", "endfor", "if", "elif", "else", "endif", "not", "and", "or":
		return true
	}
	return false
}

// unwrapDetail strips the sentinel prefix from a wrapped format error so the
// message is not repeated when it is re-wrapped in an Error.
func unwrapDetail(err error) string {
	msg := err.Error()
	prefix := ErrMalformedFormatSpec.Error() + ": "
	if errors.Is(err, ErrMalformedFormatSpec) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

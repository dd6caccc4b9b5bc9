package asm

import (
	"fmt"
	"slices"
	"strings"

	"go.creack.net/mars/redcode"
)

// Pseudo-opcodes.
const (
	pseudoORG = "ORG"
	pseudoEQU = "EQU"
	pseudoEND = "END"
)

// operand is an unevaluated instruction operand.
type operand struct {
	mode redcode.Mode
	expr []item
}

// statement is one parsed instruction line.
type statement struct {
	line     int
	op       redcode.Opcode
	mod      redcode.Modifier
	hasMod   bool
	operands []operand
}

type equate struct {
	name string
	line int
	expr []item
}

// parser turns the token stream into statements, labels and equates.
// Expressions are evaluated later, once every label is known.
type parser struct {
	name      string
	lexer     *lexer
	currToken item
	peekToken item

	title   string
	author  string
	stmts   []statement
	labels  map[string]int // Label to statement index.
	equates []equate
	pending []string // Labels waiting for the next instruction.
	org     []item
	orgLine int
}

func newParser(name, input string) *parser {
	p := &parser{
		name:   name,
		lexer:  newLexer(input),
		labels: map[string]int{},
	}
	// Preload the next token.
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *parser) nextToken() {
	p.currToken = p.peekToken
	p.peekToken = p.lexer.nextItem()
}

func (p *parser) errorf(line int, err error, format string, args ...any) error {
	return &SyntaxError{Name: p.name, Line: line, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

// comment picks the warrior metadata out of a comment.
func (p *parser) comment(text string) {
	key, value, _ := strings.Cut(text, " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "name":
		if p.title == "" {
			p.title = value
		}
	case "author":
		if p.author == "" {
			p.author = value
		}
	}
}

func (p *parser) defined(name string) bool {
	if _, ok := p.labels[name]; ok {
		return true
	}
	for _, elem := range p.equates {
		if elem.name == name {
			return true
		}
	}
	return false
}

func (p *parser) parse() error {
	for {
		p.nextToken()
		switch p.currToken.typ {
		case itemEOF:
			p.flushLabels()
			return nil
		case itemError:
			return p.errorf(p.currToken.line, ErrSyntax, "%s", p.currToken.val)
		case itemNewline:
			continue
		case itemComment:
			p.comment(p.currToken.val)
			continue
		case itemIdentifier:
			end, err := p.parseLine()
			if err != nil {
				return err
			}
			if end {
				p.flushLabels()
				return nil
			}
		default:
			return p.errorf(p.currToken.line, ErrSyntax, "unexpected %s", p.currToken)
		}
	}
}

// flushLabels binds the labels left at the end of the program to the
// address past the last instruction.
func (p *parser) flushLabels() {
	for _, elem := range p.pending {
		p.labels[elem] = len(p.stmts)
	}
	p.pending = nil
}

// parseLine parses a line starting at the identifier under the cursor.
// It reports whether the line was END.
func (p *parser) parseLine() (bool, error) {
	line := p.currToken.line

	// Leading labels, with an optional colon.
	var lineLabels []string
	colon := false
	for p.currToken.typ == itemIdentifier && !isKeyword(p.currToken.val) {
		name := p.currToken.val
		if p.defined(name) || slices.Contains(p.pending, name) {
			return false, p.errorf(line, ErrLabelDuplicate, "%q", name)
		}
		lineLabels = append(lineLabels, name)
		p.nextToken()
		colon = p.currToken.typ == itemColon
		if colon {
			p.nextToken()
		}
	}

	if p.currToken.typ.isEOL() {
		p.pending = append(p.pending, lineLabels...)
		return false, p.endLine()
	}
	if p.currToken.typ != itemIdentifier {
		// An operand right after a bare word: the word was meant as an opcode.
		if !colon {
			return false, p.errorf(line, ErrOpcodeUnknown, "%q", lineLabels[len(lineLabels)-1])
		}
		return false, p.errorf(line, ErrSyntax, "unexpected %s", p.currToken)
	}

	switch keyword := strings.ToUpper(p.currToken.val); keyword {
	case pseudoEQU:
		if len(lineLabels) == 0 {
			return false, p.errorf(line, ErrEquateSyntax, "%s", p.currToken.val)
		}
		p.nextToken()
		expr, err := p.parseExpr(line)
		if err != nil {
			return false, err
		}
		for _, name := range lineLabels {
			p.equates = append(p.equates, equate{name: name, line: line, expr: expr})
		}
		return false, p.endLine()

	case pseudoORG, pseudoEND:
		p.pending = append(p.pending, lineLabels...)
		p.nextToken()
		if p.currToken.typ.isEOL() {
			if keyword == pseudoORG {
				return false, p.errorf(line, ErrSyntax, "ORG without address")
			}
			return true, nil
		}
		expr, err := p.parseExpr(line)
		if err != nil {
			return false, err
		}
		p.org, p.orgLine = expr, line
		if keyword == pseudoEND {
			return true, nil
		}
		return false, p.endLine()
	}

	p.pending = append(p.pending, lineLabels...)
	for _, elem := range p.pending {
		p.labels[elem] = len(p.stmts)
	}
	p.pending = nil

	st, err := p.parseInstruction(line)
	if err != nil {
		return false, err
	}
	p.stmts = append(p.stmts, st)
	return false, p.endLine()
}

// endLine checks that the cursor is at the end of a line.
func (p *parser) endLine() error {
	switch p.currToken.typ {
	case itemComment:
		p.comment(p.currToken.val)
		return nil
	case itemNewline, itemEOF:
		return nil
	case itemError:
		return p.errorf(p.currToken.line, ErrSyntax, "%s", p.currToken.val)
	default:
		return p.errorf(p.currToken.line, ErrSyntax, "unexpected %s", p.currToken)
	}
}

func (p *parser) parseInstruction(line int) (statement, error) {
	st := statement{line: line}

	op, ok := redcode.ParseOpcode(p.currToken.val)
	if !ok {
		return st, p.errorf(line, ErrOpcodeUnknown, "%q", p.currToken.val)
	}
	st.op = op
	p.nextToken()

	if p.currToken.typ == itemDot {
		p.nextToken()
		if p.currToken.typ != itemIdentifier {
			return st, p.errorf(line, ErrModifierUnknown, "expected modifier, got %s", p.currToken)
		}
		mod, ok := redcode.ParseModifier(p.currToken.val)
		if !ok {
			return st, p.errorf(line, ErrModifierUnknown, "%q", p.currToken.val)
		}
		st.mod, st.hasMod = mod, true
		p.nextToken()
	}

	for !p.currToken.typ.isEOL() {
		if len(st.operands) > 0 {
			if p.currToken.typ != itemComma {
				return st, p.errorf(line, ErrSyntax, "expected comma, got %s", p.currToken)
			}
			p.nextToken()
		}
		opd, err := p.parseOperand(line)
		if err != nil {
			return st, err
		}
		st.operands = append(st.operands, opd)
	}

	if n := len(st.operands); n < 1 || n > 2 {
		return st, p.errorf(line, ErrOperandCount, "%s takes 1 or 2 operands, got %d", st.op, n)
	}
	return st, nil
}

func (p *parser) parseOperand(line int) (operand, error) {
	opd := operand{mode: redcode.Direct}
	switch {
	case p.currToken.typ == itemSigil:
		opd.mode, _ = redcode.ModeFromSigil(rune(p.currToken.val[0]))
		p.nextToken()
	case p.currToken.typ == itemOperator && p.currToken.val == "*":
		opd.mode = redcode.AIndirect
		p.nextToken()
	}

	expr, err := p.parseExpr(line)
	if err != nil {
		return opd, err
	}
	opd.expr = expr
	return opd, nil
}

// parseExpr collects the tokens of an expression, up to a comma or the
// end of the line.
func (p *parser) parseExpr(line int) ([]item, error) {
	var expr []item
	for p.currToken.typ != itemComma && !p.currToken.typ.isEOL() {
		switch p.currToken.typ {
		case itemNumber, itemIdentifier, itemOperator:
			expr = append(expr, p.currToken)
		case itemError:
			return nil, p.errorf(p.currToken.line, ErrSyntax, "%s", p.currToken.val)
		default:
			return nil, p.errorf(line, ErrExpression, "unexpected %s", p.currToken)
		}
		p.nextToken()
	}
	if len(expr) == 0 {
		return nil, p.errorf(line, ErrExpression, "missing value")
	}
	return expr, nil
}

func isKeyword(name string) bool {
	switch strings.ToUpper(name) {
	case pseudoORG, pseudoEQU, pseudoEND:
		return true
	}
	_, ok := redcode.ParseOpcode(name)
	return ok
}

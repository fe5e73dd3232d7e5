package circuit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse consumes a line-oriented circuit description and produces a
// validated Circuit. The grammar, one statement per line:
//
//	name   <identifier>
//	input  <identifier> <integer>
//	output <identifier> <integer>
//	const  <identifier> <integer>
//	add|sub|mul|xor|eq <operand> <operand> <result>
//	hash   <operand> <result>
//
// Blank lines and lines starting with // are skipped. Declaration lines may
// appear in any order, but an operation may only reference identifiers that
// were declared (or produced by an earlier operation) above it.
func Parse(r io.Reader) (*Circuit, error) {
	var (
		c        *Circuit
		nameLine int
	)
	// Declarations before the name line are accepted; statements accumulate
	// into a provisional circuit that is renamed once the name line arrives.
	c = New("")

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}

		tokens := strings.Fields(text)
		switch tokens[0] {
		case "name":
			if len(tokens) != 2 {
				return nil, &SyntaxError{Line: line, Detail: "name takes exactly one identifier"}
			}
			if nameLine != 0 {
				return nil, &SyntaxError{Line: line, Detail: fmt.Sprintf("duplicate name statement (first at line %d)", nameLine)}
			}
			c.Name = tokens[1]
			nameLine = line

		case "input":
			name, value, err := parseDeclaration(tokens, line)
			if err != nil {
				return nil, err
			}
			if _, err := c.allocate(name, Public); err != nil {
				return nil, tagLine(err, line)
			}
			c.Inputs = append(c.Inputs, Binding{Name: name, Value: value})

		case "output":
			name, value, err := parseDeclaration(tokens, line)
			if err != nil {
				return nil, err
			}
			for _, o := range c.Outputs {
				if o.Name == name {
					return nil, &DuplicateVariableError{Name: name, Line: line}
				}
			}
			// Outputs usually name a later operation result, so resolution
			// is deferred to the end of the file.
			c.Outputs = append(c.Outputs, Binding{Name: name, Value: value})

		case "const":
			name, value, err := parseDeclaration(tokens, line)
			if err != nil {
				return nil, err
			}
			if _, err := c.allocate(name, Constant); err != nil {
				return nil, tagLine(err, line)
			}
			c.Constants = append(c.Constants, Binding{Name: name, Value: value})

		case "add", "sub", "mul", "xor", "eq":
			if len(tokens) != 4 {
				return nil, &SyntaxError{Line: line, Detail: fmt.Sprintf("%s takes two operands and a result identifier", tokens[0])}
			}
			a, ok := c.Lookup(tokens[1])
			if !ok {
				return nil, &UndefinedVariableError{Name: tokens[1], Line: line}
			}
			b, ok := c.Lookup(tokens[2])
			if !ok {
				return nil, &UndefinedVariableError{Name: tokens[2], Line: line}
			}
			result, err := c.allocate(tokens[3], Private)
			if err != nil {
				return nil, tagLine(err, line)
			}
			c.Operations = append(c.Operations, Operation{Op: opKeyword(tokens[0]), A: a, B: b, Result: result})

		case "hash":
			if len(tokens) != 3 {
				return nil, &SyntaxError{Line: line, Detail: "hash takes one operand and a result identifier"}
			}
			a, ok := c.Lookup(tokens[1])
			if !ok {
				return nil, &UndefinedVariableError{Name: tokens[1], Line: line}
			}
			result, err := c.allocate(tokens[2], Private)
			if err != nil {
				return nil, tagLine(err, line)
			}
			c.Operations = append(c.Operations, Operation{Op: OpHash, A: a, B: NoOperand, Result: result})

		default:
			return nil, &SyntaxError{Line: line, Detail: fmt.Sprintf("unknown statement %q", tokens[0])}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read circuit description: %w", err)
	}

	if nameLine == 0 {
		return nil, &SyntaxError{Line: line, Detail: "missing name statement"}
	}
	if err := c.resolveOutputs(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseString parses a circuit description held in memory.
func ParseString(s string) (*Circuit, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile reads and parses a circuit description file.
func ParseFile(path string) (*Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open circuit file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// parseDeclaration validates an input/output/const statement and parses its
// integer literal.
func parseDeclaration(tokens []string, line int) (string, int64, error) {
	if len(tokens) != 3 {
		return "", 0, &SyntaxError{Line: line, Detail: fmt.Sprintf("%s takes an identifier and an integer value", tokens[0])}
	}
	value, err := strconv.ParseInt(tokens[2], 10, 64)
	if err != nil {
		return "", 0, &SyntaxError{Line: line, Detail: fmt.Sprintf("invalid integer literal %q", tokens[2])}
	}
	return tokens[1], value, nil
}

func opKeyword(keyword string) Op {
	switch keyword {
	case "add":
		return OpAdd
	case "sub":
		return OpSub
	case "mul":
		return OpMul
	case "xor":
		return OpXor
	case "eq":
		return OpEq
	default:
		return OpHash
	}
}

// tagLine attaches the current line number to semantic errors raised during
// allocation.
func tagLine(err error, line int) error {
	if d, ok := err.(*DuplicateVariableError); ok {
		d.Line = line
	}
	return err
}

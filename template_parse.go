package orca

import (
	"fmt"
	"strings"
)

// tag is one {{...}} delimited instruction extracted by the lexer.
type tag struct {
	raw string // trimmed content between the braces
}

// lex splits src into an alternating stream of literal text and tags,
// represented as a single ordered list for the parser to walk.
func lex(src string) []any {
	var out []any
	rest := src
	for {
		i := strings.Index(rest, "{{")
		if i < 0 {
			if len(rest) > 0 {
				out = append(out, rest)
			}
			break
		}
		if i > 0 {
			out = append(out, rest[:i])
		}
		rest = rest[i+2:]
		j := strings.Index(rest, "}}")
		if j < 0 {
			// Unterminated tag: treat the remainder as literal text.
			out = append(out, "{{"+rest)
			break
		}
		out = append(out, tag{raw: strings.TrimSpace(rest[:j])})
		rest = rest[j+2:]
	}
	return out
}

// parseTemplate compiles template source into a node list.
func parseTemplate(src string) ([]node, error) {
	tokens := lex(src)
	nodes, rest, err := parseNodes(tokens, "")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: unexpected trailing block close", ErrTemplateCompile)
	}
	return nodes, nil
}

// parseNodes consumes tokens until it sees a close tag matching
// untilClose (empty means parse to end of input), returning the parsed
// nodes and the unconsumed remainder (with the close tag itself stripped).
func parseNodes(tokens []any, untilClose string) ([]node, []any, error) {
	var out []node
	for len(tokens) > 0 {
		switch t := tokens[0].(type) {
		case string:
			out = append(out, &textNode{text: t})
			tokens = tokens[1:]
		case tag:
			tokens = tokens[1:]
			raw := t.raw
			switch {
			case raw == untilClose && strings.HasPrefix(untilClose, "/"):
				return out, tokens, nil
			case raw == "else" && untilClose != "":
				// Let the caller (ifNode parsing) handle this by returning
				// control with a sentinel close value.
				return out, append([]any{tag{raw: "else"}}, tokens...), nil
			case strings.HasPrefix(raw, "#system"):
				body, rest, err := parseNodes(tokens, "/system")
				if err != nil {
					return nil, nil, err
				}
				out = append(out, &roleNode{role: RoleSystem, body: body})
				tokens = rest
			case strings.HasPrefix(raw, "#user"):
				body, rest, err := parseNodes(tokens, "/user")
				if err != nil {
					return nil, nil, err
				}
				out = append(out, &roleNode{role: RoleUser, body: body})
				tokens = rest
			case strings.HasPrefix(raw, "#assistant"):
				body, rest, err := parseNodes(tokens, "/assistant")
				if err != nil {
					return nil, nil, err
				}
				out = append(out, &roleNode{role: RoleAssistant, body: body})
				tokens = rest
			case strings.HasPrefix(raw, "#chat"):
				body, rest, err := parseNodes(tokens, "/chat")
				if err != nil {
					return nil, nil, err
				}
				out = append(out, &chatNode{body: body})
				tokens = rest
			case strings.HasPrefix(raw, "#each"):
				path := strings.TrimSpace(strings.TrimPrefix(raw, "#each"))
				body, rest, err := parseNodes(tokens, "/each")
				if err != nil {
					return nil, nil, err
				}
				out = append(out, &eachNode{path: path, body: body})
				tokens = rest
			case strings.HasPrefix(raw, "#if"):
				lhs, rhs, err := parseEqCondition(raw)
				if err != nil {
					return nil, nil, err
				}
				thenBody, rest, err := parseNodes(tokens, "/if")
				if err != nil {
					return nil, nil, err
				}
				var elseBody []node
				if len(rest) > 0 {
					if tg, ok := rest[0].(tag); ok && tg.raw == "else" {
						elseBody, rest, err = parseNodes(rest[1:], "/if")
						if err != nil {
							return nil, nil, err
						}
					}
				}
				out = append(out, &ifNode{lhs: lhs, rhs: rhs, thenBranch: thenBody, elseBranch: elseBody})
				tokens = rest
			default:
				out = append(out, &varNode{path: raw})
			}
		}
	}
	if untilClose != "" {
		return nil, nil, fmt.Errorf("%w: missing closing %q", ErrTemplateCompile, untilClose)
	}
	return out, nil, nil
}

// parseEqCondition parses "#if (eq a b)" into its two operands.
func parseEqCondition(raw string) (string, string, error) {
	expr := strings.TrimSpace(strings.TrimPrefix(raw, "#if"))
	expr = strings.TrimPrefix(expr, "(")
	expr = strings.TrimSuffix(expr, ")")
	expr = strings.TrimSpace(strings.TrimPrefix(expr, "eq"))
	fields := splitArgs(expr)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("%w: #if only supports (eq a b)", ErrTemplateCompile)
	}
	return fields[0], fields[1], nil
}

// splitArgs splits a helper argument list on whitespace, respecting quoted
// strings so `"a b"` stays one argument.
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := byte(0)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

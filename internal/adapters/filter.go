package adapters

import (
	"fmt"
	"strconv"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Filter is a parsed requirement filter: LDAP-style prefix expressions
// over capability attributes, e.g. (&(osgi.wiring.package=com.a)(version>=1.2.0)).
type Filter struct {
	root filterNode
}

// Matches evaluates the filter against a capability attribute map. An
// empty filter matches everything.
func (f *Filter) Matches(attrs map[string]any) bool {
	if f == nil || f.root == nil {
		return true
	}
	return f.root.matches(attrs)
}

// ParseFilter parses a filter expression. Supported operators: & | !
// composites and =, >=, <= comparison terms. Comparisons use semver
// ordering when both sides parse as versions, numeric ordering when
// both parse as numbers, and string ordering otherwise. The = operator
// supports a trailing * wildcard.
func ParseFilter(expr string) (*Filter, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return &Filter{}, nil
	}
	node, rest, err := parseNode(trimmed)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, filterError(expr, "trailing input after expression")
	}
	return &Filter{root: node}, nil
}

type filterNode interface {
	matches(attrs map[string]any) bool
}

type compositeNode struct {
	op       byte
	children []filterNode
}

func (n *compositeNode) matches(attrs map[string]any) bool {
	switch n.op {
	case '&':
		for _, child := range n.children {
			if !child.matches(attrs) {
				return false
			}
		}
		return true
	case '|':
		for _, child := range n.children {
			if child.matches(attrs) {
				return true
			}
		}
		return false
	default:
		return !n.children[0].matches(attrs)
	}
}

type termNode struct {
	key   string
	op    string
	value string
}

func (n *termNode) matches(attrs map[string]any) bool {
	raw, ok := attrs[n.key]
	if !ok {
		return false
	}
	switch actual := raw.(type) {
	case []any:
		for _, item := range actual {
			if matchScalar(item, n.op, n.value) {
				return true
			}
		}
		return false
	default:
		return matchScalar(actual, n.op, n.value)
	}
}

func matchScalar(raw any, op string, expected string) bool {
	actual := fmt.Sprintf("%v", raw)
	if op == "=" {
		if suffix, ok := strings.CutSuffix(expected, "*"); ok {
			return strings.HasPrefix(actual, suffix)
		}
	}
	if av, err := semver.NewVersion(actual); err == nil {
		if ev, err := semver.NewVersion(expected); err == nil {
			return compareResult(av.Compare(ev), op)
		}
	}
	if af, err := strconv.ParseFloat(actual, 64); err == nil {
		if ef, err := strconv.ParseFloat(expected, 64); err == nil {
			return compareResult(compareFloats(af, ef), op)
		}
	}
	return compareResult(strings.Compare(actual, expected), op)
}

func compareResult(cmp int, op string) bool {
	switch op {
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	default:
		return cmp == 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func parseNode(input string) (filterNode, string, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "(") {
		return nil, "", filterError(input, "expected opening parenthesis")
	}
	body := input[1:]
	if body == "" {
		return nil, "", filterError(input, "unterminated expression")
	}
	switch body[0] {
	case '&', '|':
		op := body[0]
		children, rest, err := parseChildren(body[1:])
		if err != nil {
			return nil, "", err
		}
		if len(children) == 0 {
			return nil, "", filterError(input, "composite needs at least one operand")
		}
		return &compositeNode{op: op, children: children}, rest, nil
	case '!':
		child, rest, err := parseNode(body[1:])
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ")") {
			return nil, "", filterError(input, "unterminated negation")
		}
		return &compositeNode{op: '!', children: []filterNode{child}}, rest[1:], nil
	default:
		end := strings.IndexByte(body, ')')
		if end < 0 {
			return nil, "", filterError(input, "unterminated term")
		}
		term, err := parseTerm(body[:end])
		if err != nil {
			return nil, "", err
		}
		return term, body[end+1:], nil
	}
}

func parseChildren(input string) ([]filterNode, string, error) {
	var children []filterNode
	rest := strings.TrimSpace(input)
	for strings.HasPrefix(rest, "(") {
		child, remaining, err := parseNode(rest)
		if err != nil {
			return nil, "", err
		}
		children = append(children, child)
		rest = strings.TrimSpace(remaining)
	}
	if !strings.HasPrefix(rest, ")") {
		return nil, "", filterError(input, "unterminated composite")
	}
	return children, rest[1:], nil
}

func parseTerm(body string) (filterNode, error) {
	for _, op := range []string{">=", "<=", "="} {
		if idx := strings.Index(body, op); idx > 0 {
			key := strings.TrimSpace(body[:idx])
			value := strings.TrimSpace(body[idx+len(op):])
			if key == "" || value == "" {
				return nil, filterError(body, "term needs a key and a value")
			}
			return &termNode{key: key, op: op, value: value}, nil
		}
	}
	return nil, filterError(body, "term needs a comparison operator")
}

func filterError(input string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid filter %q: %s", input, reason))
}

package criteria

import "strings"

const wildcard = "*"

// reservedEscaper backslash-escapes the engine's reserved characters in one pass.
var reservedEscaper = strings.NewReplacer(
	`"`, `\"`,
	`+`, `\+`,
	`-`, `\-`,
	`&&`, `\&\&`,
	`||`, `\|\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`\`, `\\`,
)

// CreateQueryString renders the whole chain in the engine's query syntax.
func (c *Criteria) CreateQueryString() (string, error) {
	if c.chain.err != nil {
		return "", c.chain.err
	}
	return c.chain.render(), nil
}

// render walks the nodes in order. The joiner between fragment i and i+1
// is the conjunction of node i+1.
func (ch *Chain) render() string {
	var sb strings.Builder
	for i, node := range ch.nodes {
		sb.WriteString(node.fragment())
		if i+1 < len(ch.nodes) {
			sb.WriteString(" ")
			sb.WriteString(string(ch.nodes[i+1].conjunction))
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func (c *Criteria) fragment() string {
	parts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		parts = append(parts, e.render())
	}
	predicates := strings.Join(parts, valueSeparator)
	if len(parts) > 1 {
		predicates = "(" + predicates + ")"
	}
	return c.field.Name() + ":" + predicates
}

func (e Entry) render() string {
	if e.kind == KindExpression {
		return e.text
	}
	v := Escape(e.text)
	switch e.kind {
	case KindContains:
		return wildcard + v + wildcard
	case KindStartsWith:
		return v + wildcard
	case KindEndsWith:
		return wildcard + v
	default:
		return v
	}
}

// Escape escapes reserved characters and quotes the result when it still
// contains whitespace.
func Escape(s string) string {
	escaped := reservedEscaper.Replace(s)
	if strings.Contains(escaped, valueSeparator) {
		return `"` + escaped + `"`
	}
	return escaped
}

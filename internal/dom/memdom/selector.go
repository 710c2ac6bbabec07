package memdom

import "strings"

// The engine's locators use a small, stable slice of CSS: tag, #id, .class,
// [attr], [attr=v], [attr*=v], [attr^=v], [attr$=v], the descendant
// combinator and comma groups. That subset is implemented here; anything
// fancier simply never matches.

type attrMatch struct {
	name string
	op   byte // 0 presence, '=', '*', '^', '$'
	val  string
}

// compound is one space-separated step of a selector: tag#id.class[attr=v].
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

// selector is a descendant chain of compounds, rightmost matched first.
type selector []compound

// parseSelectorGroup splits a comma group into selectors.
func parseSelectorGroup(expr string) []selector {
	var group []selector
	for _, part := range splitTop(expr, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if sel := parseSelector(part); len(sel) > 0 {
			group = append(group, sel)
		}
	}
	return group
}

func parseSelector(expr string) selector {
	var sel selector
	for _, step := range splitTop(expr, ' ') {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		sel = append(sel, parseCompound(step))
	}
	return sel
}

// splitTop splits on sep outside attribute brackets and quotes, so values
// like [style*="flex-direction: column;"] survive tokenization.
func splitTop(s string, sep byte) []string {
	var (
		parts  []string
		start  int
		inAttr bool
		quote  byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			inAttr = true
		case c == ']':
			inAttr = false
		case c == sep && !inAttr:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseCompound(s string) compound {
	var c compound
	i := 0
	for i < len(s) {
		switch s[i] {
		case '#':
			j := simpleEnd(s, i+1)
			c.id = s[i+1 : j]
			i = j
		case '.':
			j := simpleEnd(s, i+1)
			c.classes = append(c.classes, s[i+1:j])
			i = j
		case '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				// Unterminated attribute selector: swallow the rest.
				return c
			}
			c.attrs = append(c.attrs, parseAttr(s[i+1:i+j]))
			i += j + 1
		default:
			j := simpleEnd(s, i+1)
			c.tag = strings.ToLower(s[i:j])
			i = j
		}
	}
	return c
}

// simpleEnd finds the end of a tag/id/class token starting at i.
func simpleEnd(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '#', '.', '[':
			return i
		}
		i++
	}
	return i
}

func parseAttr(body string) attrMatch {
	for _, op := range []string{"*=", "^=", "$=", "="} {
		if idx := strings.Index(body, op); idx >= 0 {
			val := strings.Trim(body[idx+len(op):], `"'`)
			var b byte = '='
			if op != "=" {
				b = op[0]
			}
			return attrMatch{name: strings.TrimSpace(body[:idx]), op: b, val: val}
		}
	}
	return attrMatch{name: strings.TrimSpace(body)}
}

func (c compound) matches(n *Node) bool {
	if c.tag != "" && c.tag != "*" && n.tag != c.tag {
		return false
	}
	if c.id != "" && n.attrs["id"] != c.id {
		return false
	}
	for _, class := range c.classes {
		if !n.hasClass(class) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := n.attrs[a.name]
		if !ok {
			return false
		}
		switch a.op {
		case 0:
			// presence only
		case '=':
			if v != a.val {
				return false
			}
		case '*':
			if !strings.Contains(v, a.val) {
				return false
			}
		case '^':
			if !strings.HasPrefix(v, a.val) {
				return false
			}
		case '$':
			if !strings.HasSuffix(v, a.val) {
				return false
			}
		}
	}
	return true
}

// matches walks ancestors for the descendant combinator, rightmost compound
// against n itself. The walk never escapes the query scope.
func (sel selector) matches(n *Node, scope *Node) bool {
	if len(sel) == 0 {
		return false
	}
	if !sel[len(sel)-1].matches(n) {
		return false
	}
	cur := n.parent
	for i := len(sel) - 2; i >= 0; i-- {
		for {
			if cur == nil || cur == scope {
				return false
			}
			ok := sel[i].matches(cur)
			cur = cur.parent
			if ok {
				break
			}
		}
	}
	return true
}

package phpast

import (
	"bytes"
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/literal"
	"github.com/Sumatoshi-tech/phpast/pkg/safeconv"
)

// textKinds are the string pieces that carry literal text rather than an
// interpolated expression.
var textKinds = map[string]bool{
	"string_content":  true,
	"string_value":    true,
	"escape_sequence": true,
	"heredoc_start":   true,
	"heredoc_end":     true,
	"heredoc_body":    true,
	"nowdoc_body":     true,
	"nowdoc_string":   true,
}

func convertInteger(c *converter, n *cst.Node) (any, error) {
	v, err := literal.ParseNumber(c.text(n))
	if err != nil {
		c.warn(n, err)

		return c.text(n), nil
	}

	return v, nil
}

func convertString(c *converter, n *cst.Node) (any, error) {
	raw := c.text(n)

	s, err := literal.DecodeQuoted(raw)
	if err != nil {
		c.warn(n, err)

		return raw, nil
	}

	return s, nil
}

// quotedBody returns the byte range between the delimiters of a quoted
// node, skipping an optional b prefix.
func (c *converter) quotedBody(n *cst.Node) (start, end uint32) {
	start, end = n.Start, n.End

	if start < end && (c.src[start] == 'b' || c.src[start] == 'B') {
		start++
	}

	if start < end {
		start++
	}

	if end > start && (c.src[end-1] == '"' || c.src[end-1] == '`') {
		end--
	}

	return start, end
}

func convertEncapsed(c *converter, n *cst.Node) (any, error) {
	start, end := c.quotedBody(n)

	return c.interpolated(n, start, end, interpolations(n), literal.DoubleQuote, "")
}

func convertShellExec(c *converter, n *cst.Node) (any, error) {
	start, end := c.quotedBody(n)

	v, err := c.interpolated(n, start, end, interpolations(n), literal.Backtick, "")
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindShellExec, 0, n).Set("expr", v), nil
}

// interpolations collects the interpolated expression nodes under n,
// descending into heredoc bodies.
func interpolations(n *cst.Node) []*cst.Node {
	var out []*cst.Node

	for _, child := range n.Children {
		if !child.Named || child.Extra {
			continue
		}

		if child.Kind == "heredoc_body" {
			out = append(out, interpolations(child)...)

			continue
		}

		if !textKinds[child.Kind] {
			out = append(out, child)
		}
	}

	return out
}

func convertHeredoc(c *converter, n *cst.Node) (any, error) {
	start, end, indent := c.heredocBody(n)

	return c.interpolated(n, start, end, interpolations(n), literal.Heredoc, indent)
}

func convertNowdoc(c *converter, n *cst.Node) (any, error) {
	start, end, indent := c.heredocBody(n)

	return literal.StripIndent(string(c.src[start:end]), indent, true), nil
}

// heredocBody finds the body of a heredoc or nowdoc: from the line after
// the opening label up to the newline ending the last content line. The
// whitespace before the closing label is the indentation removed from
// every line.
func (c *converter) heredocBody(n *cst.Node) (start, end uint32, indent string) {
	start, end = n.Start, n.End

	if open := n.FirstNamed("heredoc_start"); open != nil {
		start = open.End
	}

	if i := bytes.IndexByte(c.src[start:n.End], '\n'); i >= 0 {
		start += safeconv.MustIntToUint32(i) + 1
	} else {
		start = n.End
	}

	closing := n.FirstNamed("heredoc_end")
	if closing == nil || closing.Missing {
		return start, max(start, end), ""
	}

	lineStart := bytes.LastIndexByte(c.src[:closing.Start], '\n')
	if lineStart < 0 || safeconv.MustIntToUint32(lineStart) < start {
		return start, start, ""
	}

	ws := string(c.src[lineStart+1 : closing.Start])
	if strings.TrimLeft(ws, " \t") == "" {
		indent = ws
	}

	end = safeconv.MustIntToUint32(lineStart)
	if end > start && c.src[end-1] == '\r' {
		end--
	}

	return start, max(start, end), indent
}

// interpolated converts a string body containing interpolations. Literal
// runs are the byte gaps between the interpolated parts; they are
// unindented and unescaped independently.
func (c *converter) interpolated(
	origin *cst.Node, start, end uint32, parts []*cst.Node, delim literal.Delimiter, indent string,
) (any, error) {
	if len(parts) == 0 {
		return c.literalRun(origin, start, end, delim, indent, true), nil
	}

	list := c.node(ast.KindEncapsList, 0, origin)
	pos := start
	atLineStart := true

	for _, part := range parts {
		from, to, braced := interpolationSpan(part)

		if from > pos {
			list.Append(c.literalRun(origin, pos, min(from, end), delim, indent, atLineStart))
		}

		v, err := c.interpolation(part, braced)
		if err != nil {
			return nil, err
		}

		list.Append(v)

		pos = max(pos, to)
		atLineStart = false
	}

	if pos < end {
		list.Append(c.literalRun(origin, pos, end, delim, indent, atLineStart))
	}

	return list, nil
}

// interpolationSpan widens part over the "{" or "${" and "}" tokens that
// wrap it.
func interpolationSpan(part *cst.Node) (from, to uint32, braced string) {
	from, to = part.Start, part.End

	if prev := part.PrevSibling(); prev != nil && !prev.Named && (prev.Kind == "{" || prev.Kind == "${") {
		from, braced = prev.Start, prev.Kind
	}

	if next := part.NextSibling(); next != nil && !next.Named && next.Kind == "}" && braced != "" {
		to = next.End
	}

	return from, to, braced
}

func (c *converter) literalRun(origin *cst.Node, from, to uint32, delim literal.Delimiter, indent string, atLineStart bool) string {
	if to <= from {
		return ""
	}

	raw := literal.StripIndent(string(c.src[from:to]), indent, atLineStart)

	s, err := literal.Unescape(raw, delim)
	if err != nil {
		c.warn(origin, err)

		return raw
	}

	return s
}

// interpolation converts one interpolated part. "${name}" names a
// variable; "$a[key]" outside braces indexes with a bare string.
func (c *converter) interpolation(part *cst.Node, braced string) (any, error) {
	if braced == "${" && part.Kind == "name" {
		return c.node(ast.KindVar, 0, part).Set("name", c.text(part)), nil
	}

	if braced == "" && part.Kind == "subscript_expression" {
		named := part.NamedChildren()
		if len(named) == 2 && named[1].Kind == "name" {
			object, err := c.expr(named[0])
			if err != nil {
				return nil, err
			}

			return c.node(ast.KindDim, 0, part).Set("expr", object).Set("dim", c.text(named[1])), nil
		}
	}

	return c.expr(part)
}

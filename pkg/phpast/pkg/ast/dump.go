package ast

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const dumpIndent = "    "

type dumpConfig struct {
	color     bool
	lines     bool
	kindColor *color.Color
	keyColor  *color.Color
	valColor  *color.Color
}

// DumpOption configures Dump.
type DumpOption func(*dumpConfig)

// WithColor highlights kinds, keys and scalars with ANSI colors.
func WithColor() DumpOption {
	return func(c *dumpConfig) {
		c.color = true
	}
}

// WithoutLines omits "@ line" suffixes, which keeps dumps of edited files
// comparable.
func WithoutLines() DumpOption {
	return func(c *dumpConfig) {
		c.lines = false
	}
}

// Dump renders a child value as indented text in the style of php-ast's
// util.php:
//
//	AST_STMT_LIST @ 1
//	    0: AST_ECHO @ 1
//	        expr: "hi"
func Dump(v any, opts ...DumpOption) string {
	cfg := &dumpConfig{lines: true}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.color {
		cfg.kindColor = color.New(color.FgCyan, color.Bold)
		cfg.keyColor = color.New(color.FgYellow)
		cfg.valColor = color.New(color.FgGreen)
	}

	var sb strings.Builder

	cfg.dump(&sb, v, 0)
	sb.WriteByte('\n')

	return sb.String()
}

func (c *dumpConfig) dump(sb *strings.Builder, v any, depth int) {
	n, ok := v.(*Node)
	if !ok {
		sb.WriteString(c.paint(c.valColor, scalarText(v)))

		return
	}

	sb.WriteString(c.paint(c.kindColor, string(n.Kind)))

	if c.lines {
		sb.WriteString(" @ ")
		sb.WriteString(strconv.FormatUint(uint64(n.Line), 10))

		if n.EndLine != 0 {
			sb.WriteByte('-')
			sb.WriteString(strconv.FormatUint(uint64(n.EndLine), 10))
		}
	}

	indent := strings.Repeat(dumpIndent, depth+1)

	if names := FlagNames(n.Kind, n.Flags); len(names) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(indent)
		sb.WriteString(c.paint(c.keyColor, "flags"))
		sb.WriteString(": ")
		sb.WriteString(strings.Join(names, " | "))
		sb.WriteString(" (")
		sb.WriteString(strconv.FormatUint(uint64(n.Flags), 10))
		sb.WriteByte(')')
	}

	if n.Decl != nil {
		c.line(sb, indent, "name", n.Decl.Name, depth)
		c.line(sb, indent, "docComment", n.Decl.DocComment, depth)
		c.line(sb, indent, "__declId", int64(n.Decl.DeclID), depth)
	}

	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		c.line(sb, indent, pair.Key, pair.Value, depth)
	}
}

func (c *dumpConfig) line(sb *strings.Builder, indent, key string, v any, depth int) {
	sb.WriteByte('\n')
	sb.WriteString(indent)
	sb.WriteString(c.paint(c.keyColor, key))
	sb.WriteString(": ")
	c.dump(sb, v, depth+1)
}

func (c *dumpConfig) paint(col *color.Color, s string) string {
	if col == nil {
		return s
	}

	return col.Sprint(s)
}

func scalarText(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return "?"
	}
}

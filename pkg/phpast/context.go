package phpast

import (
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/lineindex"
)

// Context is the per-conversion state shared by every conversion step.
// A fresh Context is created for each file; it is never shared between
// goroutines.
type Context struct {
	Version      ast.Version
	Placeholders bool
	Lines        *lineindex.Index

	nextDeclID uint32
}

// NewContext creates the state for converting src.
func NewContext(src []byte, version ast.Version, placeholders bool) *Context {
	return &Context{
		Version:      version,
		Placeholders: placeholders,
		Lines:        lineindex.New(src),
	}
}

// NextDeclID returns the next declaration id, starting at 0.
func (c *Context) NextDeclID() uint32 {
	id := c.nextDeclID
	c.nextDeclID++

	return id
}

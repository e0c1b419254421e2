package compiler

import (
	"fmt"

	"github.com/vk/liveui/internal/artifact"
)

// CompileError is a recoverable failure to compile one file. Line and
// Column locate the first error diagnostic; they are zero for read failures.
type CompileError struct {
	Path        string
	Line        int
	Column      int
	Message     string
	Diagnostics artifact.Diagnostics
	Err         error
}

func newCompileError(path string, diags artifact.Diagnostics) *CompileError {
	e := &CompileError{Path: path, Diagnostics: diags, Message: "parser returned no declarations"}
	if errs := diags.Errors(); len(errs) > 0 {
		e.Line = errs[0].Line
		e.Column = errs[0].Column
		e.Message = errs[0].Message
	}
	return e
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

package sandbox

import "fmt"

// CompileError reports a snippet that does not parse. Positions are in
// snippet coordinates (1-based).
type CompileError struct {
	Message  string
	Line     int
	Column   int
	Fragment string // the offending source line
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ErrorKind classifies runtime failures.
type ErrorKind string

const (
	KindReference ErrorKind = "ReferenceError"
	KindType      ErrorKind = "TypeError"
	KindRender    ErrorKind = "RenderError"
	KindTimeout   ErrorKind = "Timeout"
)

// RuntimeError reports a failure while evaluating a parsed snippet.
// Line and Column are zero when the failure has no source position.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsTimeout reports whether e was caused by the execution budget.
func (e *RuntimeError) IsTimeout() bool { return e.Kind == KindTimeout }

package preview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/render"
)

// Kind is the outcome of a preview run.
type Kind string

const (
	Rendered        Kind = "rendered"
	ValidationError Kind = "validation_error"
	CompileError    Kind = "compile_error"
	RuntimeError    Kind = "runtime_error"
)

// Failure describes a compile or runtime error. Kind is the runtime
// error kind (ReferenceError, TypeError, RenderError, Timeout) and is
// empty for compile errors.
type Failure struct {
	Kind     string `json:"kind,omitempty"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// Result is the outcome of one preview run. Exactly one of Artifact,
// Missing or Error is set, according to Kind.
type Result struct {
	Seq        uint64              `json:"seq"`
	Kind       Kind                `json:"kind"`
	Artifact   render.Node         `json:"artifact,omitempty"`
	HTML       string              `json:"html,omitempty"`
	Missing    []string            `json:"missing,omitempty"`
	Hints      map[string][]string `json:"hints,omitempty"`
	Error      *Failure            `json:"error,omitempty"`
	References extract.References  `json:"references"`
	// RawArtifact holds the artifact of a decoded Result. Live nodes
	// cannot be rebuilt from JSON, so Artifact stays nil after decoding.
	RawArtifact json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a Result as served over HTTP.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	aux := struct {
		*plain
		Artifact json.RawMessage `json:"artifact,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Artifact = nil
	r.RawArtifact = aux.Artifact
	return nil
}

// OK reports whether the snippet rendered.
func (r Result) OK() bool { return r.Kind == Rendered }

// IsTimeout reports whether evaluation ran out of budget.
func (r Result) IsTimeout() bool {
	return r.Kind == RuntimeError && r.Error != nil && r.Error.Kind == "Timeout"
}

// Message is a one-line human readable summary of a failed run. It is
// empty for rendered results.
func (r Result) Message() string {
	switch r.Kind {
	case ValidationError:
		return fmt.Sprintf("The following components are not available in the registry: %s", strings.Join(r.Missing, ", "))
	case CompileError, RuntimeError:
		if r.Error == nil {
			return string(r.Kind)
		}
		prefix := "SyntaxError"
		if r.Kind == RuntimeError {
			prefix = r.Error.Kind
		}
		if r.Error.Line > 0 {
			return fmt.Sprintf("%s (%d:%d): %s", prefix, r.Error.Line, r.Error.Column, r.Error.Message)
		}
		return fmt.Sprintf("%s: %s", prefix, r.Error.Message)
	}
	return ""
}

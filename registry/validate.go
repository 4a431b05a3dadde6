package registry

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rubiojr/livepreview/ast"
)

// maxHints caps the "did you mean" suggestions per missing name.
const maxHints = 3

// Missing returns the names absent from snap, in input order without
// duplicates. An empty (non-nil) slice means every name is known.
func Missing(names []string, snap *Snapshot) []string {
	missing := []string{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !snap.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// MissingError reports components a snippet uses that the registry does
// not provide.
type MissingError struct {
	Missing []string
	// Hints maps a missing name to close registry names, best first.
	Hints map[string][]string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing components: %s", strings.Join(e.Missing, ", "))
}

// Validate returns a *MissingError when any of names is absent from snap.
func Validate(names []string, snap *Snapshot) error {
	missing := Missing(names, snap)
	if len(missing) == 0 {
		return nil
	}
	return &MissingError{Missing: missing, Hints: Hints(missing, snap)}
}

// Hints fuzzy-matches each missing name against the snapshot.
func Hints(missing []string, snap *Snapshot) map[string][]string {
	hints := make(map[string][]string, len(missing))
	names := snap.Names()
	for _, name := range missing {
		matches := fuzzy.Find(strings.ToLower(name), lowerAll(names))
		var out []string
		for _, m := range matches {
			out = append(out, names[m.Index])
			if len(out) == maxHints {
				break
			}
		}
		if len(out) > 0 {
			hints[name] = out
		}
	}
	return hints
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

// ValidationCheck is an ast.Check failing with *MissingError when the
// tree uses a component tag absent from Snapshot.
type ValidationCheck struct {
	Snapshot *Snapshot
}

func (ValidationCheck) Name() string { return "registry" }

func (c ValidationCheck) Check(n ast.Node) error {
	var names []string
	ast.WalkElements(n, func(el *ast.Element) {
		if el.IsComponent() {
			names = append(names, el.RootName())
		}
	})
	return Validate(names, c.Snapshot)
}

var _ ast.Check = ValidationCheck{}

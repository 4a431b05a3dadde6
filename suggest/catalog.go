// Package suggest maps free-text UI requests to component snippets. It
// has a local keyword matcher over a catalog, a persistent input history
// with autocomplete, and remote and AI backed suggesters.
package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MaxInputLength is the longest accepted request, in characters.
const MaxInputLength = 500

var (
	ErrInputTooLong = errors.New("word count exceeded")
	ErrEmptyInput   = errors.New("empty input")
	ErrNoMatches    = errors.New("no components found")
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is one catalog item.
type Entry struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	CodeSnippet string   `yaml:"codeSnippet" json:"codeSnippet"`
}

// Catalog is an ordered list of entries.
type Catalog []Entry

// Suggestion is a single generated component.
type Suggestion struct {
	ComponentName string `json:"componentName"`
	ComponentCode string `json:"componentCode"`
}

// Suggester turns a request into one component suggestion.
type Suggester interface {
	Suggest(ctx context.Context, input string) (Suggestion, error)
}

// CheckInput rejects empty and oversized requests.
func CheckInput(input string) error {
	if utf8.RuneCountInString(input) > MaxInputLength {
		return ErrInputTooLong
	}
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}
	return nil
}

// LoadCatalog decodes a YAML or JSON list of entries.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	for i, e := range c {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: missing name", i)
		}
	}
	return c, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

// Match returns the entries with a keyword contained in input,
// case-insensitively, in catalog order.
func (c Catalog) Match(input string) ([]Entry, error) {
	if err := CheckInput(input); err != nil {
		return nil, err
	}
	lower := strings.ToLower(input)
	var out []Entry
	for _, e := range c {
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				out = append(out, e)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMatches
	}
	return out, nil
}

// Find returns the entry named name.
func (c Catalog) Find(name string) (Entry, bool) {
	for _, e := range c {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	vai "github.com/vango-go/vai-lite/sdk"

	"github.com/rubiojr/livepreview/registry"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "oai-resp/gpt-5-mini"

var errNoSuggestion = errors.New("model returned no suggestion")

// AISuggester asks a language model for a snippet built only from the
// components of a registry snapshot.
type AISuggester struct {
	client   *vai.Client
	Model    string
	Registry *registry.Snapshot
}

// NewAISuggester returns a suggester using model. Credentials come from
// the environment.
func NewAISuggester(model string, snap *registry.Snapshot) *AISuggester {
	if model == "" {
		model = DefaultModel
	}
	return &AISuggester{client: vai.NewClient(), Model: model, Registry: snap}
}

// Suggest implements Suggester.
func (a *AISuggester) Suggest(ctx context.Context, input string) (Suggestion, error) {
	if err := CheckInput(input); err != nil {
		return Suggestion{}, err
	}
	req := &vai.MessageRequest{
		Model: a.Model,
		Messages: []vai.Message{{
			Role:    "user",
			Content: []vai.ContentBlock{vai.Text(Prompt(a.Registry, input))},
		}},
	}

	stream, err := a.client.Messages.RunStream(ctx, req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("ai suggest: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	if _, err := stream.Process(vai.StreamCallbacks{
		OnTextDelta: func(delta string) { text.WriteString(delta) },
	}); err != nil {
		return Suggestion{}, fmt.Errorf("ai suggest: %w", err)
	}
	if err := stream.Err(); err != nil {
		return Suggestion{}, fmt.Errorf("ai suggest: %w", err)
	}
	return ParseSuggestion(text.String())
}

// Prompt builds the instruction sent to the model for input.
func Prompt(snap *registry.Snapshot, input string) string {
	var sb strings.Builder
	sb.WriteString("You write JSX snippets for a live preview. Use only these components and lowercase HTML tags:\n")
	for _, name := range snap.Names() {
		c, _ := snap.Get(name)
		sb.WriteString("- " + name)
		if doc := c.Doc(); doc != "" {
			sb.WriteString(": " + doc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Event handlers must be bare identifiers such as onClick={handleClick}. ")
	sb.WriteString("Do not write imports, exports or function declarations.\n")
	sb.WriteString(`Reply with a JSON object {"componentName": "...", "componentCode": "..."} and nothing else.`)
	sb.WriteString("\n\nRequest: ")
	sb.WriteString(input)
	return sb.String()
}

// ParseSuggestion extracts the JSON suggestion from a model reply,
// tolerating surrounding prose and code fences.
func ParseSuggestion(reply string) (Suggestion, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Suggestion{}, errNoSuggestion
	}
	var s Suggestion
	if err := json.Unmarshal([]byte(reply[start:end+1]), &s); err != nil {
		return Suggestion{}, fmt.Errorf("decoding suggestion: %w", err)
	}
	s.ComponentCode = strings.TrimSpace(s.ComponentCode)
	if s.ComponentCode == "" {
		return Suggestion{}, errNoSuggestion
	}
	return s, nil
}

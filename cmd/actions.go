package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/livepreview/doc"
	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/preview"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
	"github.com/rubiojr/livepreview/sandbox"
	"github.com/rubiojr/livepreview/server"
	"github.com/rubiojr/livepreview/suggest"
)

// snapshot returns the registered components plus any loaded from the
// --registry file.
func (a *app) snapshot(cmd *cli.Command) (*registry.Snapshot, error) {
	snap := registry.Default()
	path := cmd.String("registry")
	if path == "" {
		return snap, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	defer f.Close()
	extra, err := registry.LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap.With(extra...), nil
}

func (a *app) pipeline(cmd *cli.Command) (*preview.Pipeline, error) {
	snap, err := a.snapshot(cmd)
	if err != nil {
		return nil, err
	}
	p := preview.New(snap)
	p.Logger = slog.Default()
	p.Options = sandbox.Options{Timeout: a.cfg.Timeout, MaxSteps: a.cfg.MaxSteps}
	return p, nil
}

func (a *app) catalog(cmd *cli.Command) (suggest.Catalog, error) {
	catalog := suggest.DefaultCatalog()
	if path := cmd.String("catalog"); path != "" {
		extra, err := suggest.LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, extra...)
	}
	return catalog, nil
}

// readSnippet reads the file named by the first argument, or stdin when
// there is none or it is "-".
func (a *app) readSnippet(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *app) previewAction(ctx context.Context, cmd *cli.Command) error {
	src, err := a.readSnippet(cmd)
	if err != nil {
		return err
	}
	p, err := a.pipeline(cmd)
	if err != nil {
		return err
	}
	p.Options.Timeout = cmd.Duration("timeout")
	p.Options.MaxSteps = cmd.Int("max-steps")

	res := p.Run(ctx, src)
	return a.printResult(res, cmd.String("format"))
}

func (a *app) printResult(res preview.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case "text", "html":
		if res.OK() {
			if format == "text" {
				fmt.Fprintln(a.out, strings.TrimSpace(render.TextContent(res.Artifact)))
			} else {
				fmt.Fprintln(a.out, res.HTML)
			}
		}
	default:
		return fmt.Errorf("unknown format %q (want html, json or text)", format)
	}
	if res.OK() {
		return nil
	}
	fmt.Fprint(a.errOut, a.styles.failure(doc.FormatResult(res)))
	return errFailed
}

func (a *app) extractAction(ctx context.Context, cmd *cli.Command) error {
	src, err := a.readSnippet(cmd)
	if err != nil {
		return err
	}
	refs := extract.Extract(src)
	if cmd.Bool("json") {
		return json.NewEncoder(a.out).Encode(refs)
	}
	fmt.Fprint(a.out, doc.FormatReferences(refs))
	return nil
}

func (a *app) componentsAction(ctx context.Context, cmd *cli.Command) error {
	snap, err := a.snapshot(cmd)
	if err != nil {
		return err
	}
	name := cmd.Args().First()
	if name == "" {
		fmt.Fprint(a.out, doc.FormatRegistry(snap))
		return nil
	}
	c, ok := snap.Get(name)
	if !ok {
		msg := fmt.Sprintf("unknown component %s", name)
		if hints := registry.Hints([]string{name}, snap)[name]; len(hints) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(hints, ", "))
		}
		return fmt.Errorf("%s", msg)
	}
	fmt.Fprint(a.out, doc.FormatComponent(c))
	return nil
}

func (a *app) openHistory() (*suggest.History, error) {
	return suggest.OpenHistory(a.cfg.DatabasePath, a.cfg.HistoryLimit)
}

func (a *app) suggester(cmd *cli.Command, snap *registry.Snapshot) suggest.Suggester {
	if url := cmd.String("backend"); url != "" {
		return suggest.NewClient(url)
	}
	return suggest.NewAISuggester(a.cfg.AIModel, snap)
}

func (a *app) suggestAction(ctx context.Context, cmd *cli.Command) error {
	input := strings.Join(cmd.Args().Slice(), " ")
	if err := suggest.CheckInput(input); err != nil {
		return err
	}
	p, err := a.pipeline(cmd)
	if err != nil {
		return err
	}

	if h, err := a.openHistory(); err != nil {
		slog.Warn("history unavailable", "error", err)
	} else {
		if err := h.Save(ctx, input); err != nil {
			slog.Warn("saving history", "error", err)
		}
		h.Close()
	}

	if cmd.Bool("ai") {
		sg, err := a.suggester(cmd, p.Registry).Suggest(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.errOut, a.styles.name.Render(sg.ComponentName))
		fmt.Fprintln(a.errOut, a.styles.box.Render(strings.TrimSpace(sg.ComponentCode)))
		return a.printResult(p.Run(ctx, sg.ComponentCode), "html")
	}

	catalog, err := a.catalog(cmd)
	if err != nil {
		return err
	}
	matches, err := catalog.Match(input)
	if err != nil {
		return err
	}

	if cmd.Bool("pick") {
		idx, err := fuzzyfinder.Find(
			matches,
			func(i int) string { return matches[i].Name },
			fuzzyfinder.WithPromptString("Select component: "),
			fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
				if i < 0 {
					return ""
				}
				return matches[i].Description + "\n\n" + matches[i].CodeSnippet
			}),
		)
		if err != nil {
			return err
		}
		return a.printResult(p.Run(ctx, matches[idx].CodeSnippet), "html")
	}

	for _, m := range matches {
		fmt.Fprintf(a.out, "%s  %s\n", a.styles.name.Render(m.Name), a.styles.faint.Render(m.Description))
		fmt.Fprintln(a.out, a.styles.box.Render(strings.TrimSpace(m.CodeSnippet)))
	}
	return nil
}

func (a *app) historyAction(ctx context.Context, cmd *cli.Command) error {
	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	if cmd.Bool("clear") {
		return h.Clear(ctx)
	}
	inputs, err := h.Inputs(ctx)
	if err != nil {
		return err
	}
	if prefix := strings.Join(cmd.Args().Slice(), " "); prefix != "" {
		inputs = suggest.Autocomplete(inputs, prefix)
	}
	for _, in := range inputs {
		fmt.Fprintln(a.out, in)
	}
	return nil
}

func (a *app) serveAction(ctx context.Context, cmd *cli.Command) error {
	p, err := a.pipeline(cmd)
	if err != nil {
		return err
	}
	catalog, err := a.catalog(cmd)
	if err != nil {
		return err
	}
	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	srv := server.New(p, catalog,
		server.WithHistory(h),
		server.WithSuggester(a.suggester(cmd, p.Registry)),
		server.WithLogger(slog.Default()),
	)
	ctx, stop := signalContext(ctx)
	defer stop()
	return srv.ListenAndServe(ctx, ":"+cmd.String("port"))
}

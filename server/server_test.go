package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/livepreview/designsystem/nova"
	"github.com/rubiojr/livepreview/preview"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/suggest"
)

type fakeSuggester struct {
	s   suggest.Suggestion
	err error
}

func (f fakeSuggester) Suggest(context.Context, string) (suggest.Suggestion, error) {
	return f.s, f.err
}

var testCatalog = suggest.Catalog{
	{Name: "Save button", Keywords: []string{"button", "save"}, CodeSnippet: `<Button onClick={save}>Save</Button>`},
	{Name: "Broken", Keywords: []string{"modal"}, CodeSnippet: `<Modal/>`},
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	p := preview.New(registry.New(nova.Components()...))
	return New(p, testCatalog, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestPreview(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/preview", `{"code":"<Badge>new</Badge>","seq":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "rendered", body["kind"])
	assert.Contains(t, body["html"], `<span class="v-badge">new</span>`)
	assert.Nil(t, body["stale"])

	rec = do(t, h, http.MethodPost, "/api/preview", `{"code":"<Nope/>","seq":3}`)
	body = decodeBody(t, rec)
	assert.Equal(t, "validation_error", body["kind"])
	assert.Equal(t, []any{"Nope"}, body["missing"])

	rec = do(t, h, http.MethodPost, "/api/preview", `{"code":"<Badge>old</Badge>","seq":1}`)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["stale"])

	rec = do(t, h, http.MethodGet, "/api/preview/latest", "")
	body = decodeBody(t, rec)
	rendered := body["rendered"].(map[string]any)
	failure := body["failure"].(map[string]any)
	assert.Equal(t, float64(2), rendered["seq"])
	assert.Equal(t, float64(3), failure["seq"])
}

func previewAs(t *testing.T, h http.Handler, session, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(body))
	req.Header.Set(SessionHeader, session)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)
}

func latestFor(t *testing.T, h http.Handler, session string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/preview/latest", nil)
	req.Header.Set(SessionHeader, session)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return decodeBody(t, rec)
}

func TestPreviewSessionsAreIndependent(t *testing.T) {
	h := newTestServer(t)

	assert.Nil(t, previewAs(t, h, "a", `{"code":"<Badge>a7</Badge>","seq":7}`)["stale"])
	assert.Nil(t, previewAs(t, h, "b", `{"code":"<Badge>b0</Badge>","seq":0}`)["stale"])
	assert.Nil(t, previewAs(t, h, "b", `{"code":"<Badge>b1</Badge>","seq":1}`)["stale"])
	assert.Equal(t, true, previewAs(t, h, "a", `{"code":"<Badge>a5</Badge>","seq":5}`)["stale"])
	assert.Equal(t, true, previewAs(t, h, "b", `{"code":"<Badge>b0</Badge>","seq":0}`)["stale"])

	a := latestFor(t, h, "a")["rendered"].(map[string]any)
	assert.Equal(t, float64(7), a["seq"])
	assert.Contains(t, a["html"], "a7")
	b := latestFor(t, h, "b")["rendered"].(map[string]any)
	assert.Equal(t, float64(1), b["seq"])
	assert.Contains(t, b["html"], "b1")

	assert.Empty(t, latestFor(t, h, "c"))
}

func TestSessionsForgetAtLimit(t *testing.T) {
	var s sessions
	first := s.get("first")
	assert.Same(t, first, s.get("first"))
	for i := range maxSessions {
		s.get(strconv.Itoa(i))
	}
	assert.Len(t, s.m, maxSessions)
}

func TestPreviewBadJSON(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/preview", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeBody(t, rec)["error"])
}

func TestComponentsAndRegistry(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/components", "")
	var catalog suggest.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, testCatalog, catalog)

	rec = do(t, h, http.MethodGet, "/api/registry", "")
	var entries []registryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, len(nova.Components()))
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Contains(t, names, "Button")
	assert.Contains(t, names, "VisaCloseTiny")
}

func TestSuggest(t *testing.T) {
	history, err := suggest.OpenHistory(filepath.Join(t.TempDir(), "h.sqlite"), 0)
	require.NoError(t, err)
	defer history.Close()
	h := newTestServer(t, WithHistory(history))

	rec := do(t, h, http.MethodPost, "/api/suggest", `{"input":"a save button and a modal"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []struct {
		Name    string         `json:"name"`
		Preview preview.Result `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "Save button", matches[0].Name)
	assert.Equal(t, preview.Rendered, matches[0].Preview.Kind)
	assert.Contains(t, string(matches[0].Preview.RawArtifact), `"type":"button"`)
	assert.Equal(t, preview.ValidationError, matches[1].Preview.Kind)
	assert.Equal(t, []string{"Modal"}, matches[1].Preview.Missing)
	assert.Empty(t, matches[1].Preview.RawArtifact)

	rec = do(t, h, http.MethodPost, "/api/suggest", `{"input":"a table"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no components found", decodeBody(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/suggest", `{"input":"`+strings.Repeat("x", 501)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/history?q=SAVE", "")
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"a table", "a save button and a modal"}, body["history"])
	assert.Equal(t, []any{"a save button and a modal"}, body["suggestions"])
}

func TestHistoryWithoutStore(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/history?q=toggle", "")
	body := decodeBody(t, rec)
	assert.Equal(t, []any{}, body["history"])
	assert.Equal(t, []any{"Toggle switch for settings"}, body["suggestions"])
}

func TestSuggestAI(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/suggest/ai", `{"input":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := newTestServer(t, WithSuggester(fakeSuggester{s: suggest.Suggestion{
		ComponentName: "Cta",
		ComponentCode: `<Button colorScheme="primary" onClick={buy}>Buy</Button>`,
	}}))
	rec = do(t, h, http.MethodPost, "/api/suggest/ai", `{"input":"buy button"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Cta", body["componentName"])
	p := body["preview"].(map[string]any)
	assert.Equal(t, "rendered", p["kind"])

	h = newTestServer(t, WithSuggester(fakeSuggester{err: errors.New("boom")}))
	rec = do(t, h, http.MethodPost, "/api/suggest/ai", `{"input":"buy button"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListenAndServeStops(t *testing.T) {
	p := preview.New(registry.New(nova.Components()...))
	s := New(p, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}

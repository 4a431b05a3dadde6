package server

import (
	"errors"
	"net/http"

	"github.com/rubiojr/livepreview/preview"
	"github.com/rubiojr/livepreview/suggest"
)

type previewRequest struct {
	Code string `json:"code"`
	Seq  uint64 `json:"seq"`
}

type previewResponse struct {
	preview.Result
	// Stale is set when a result with a higher seq was already served
	// to the same session.
	Stale bool `json:"stale,omitempty"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decode(w, r, &req) {
		return
	}
	res := s.pipeline.RunSeq(r.Context(), req.Seq, req.Code)
	stale := !s.latest.get(r.Header.Get(SessionHeader)).Offer(res)
	writeJSON(w, http.StatusOK, previewResponse{Result: res, Stale: stale})
}

type latestResponse struct {
	Rendered *preview.Result `json:"rendered,omitempty"`
	Failure  *preview.Result `json:"failure,omitempty"`
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	var out latestResponse
	latest, ok := s.latest.lookup(r.Header.Get(SessionHeader))
	if !ok {
		writeJSON(w, http.StatusOK, out)
		return
	}
	if res, ok := latest.Rendered(); ok {
		out.Rendered = &res
	}
	if res, ok := latest.Failure(); ok {
		out.Failure = &res
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	catalog := s.catalog
	if catalog == nil {
		catalog = suggest.Catalog{}
	}
	writeJSON(w, http.StatusOK, catalog)
}

type registryEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	snap := s.pipeline.Registry
	out := make([]registryEntry, 0, snap.Len())
	for _, name := range snap.Names() {
		c := snap.MustGet(name)
		out = append(out, registryEntry{Name: name, Description: c.Doc()})
	}
	writeJSON(w, http.StatusOK, out)
}

type suggestRequest struct {
	Input string `json:"input"`
}

type match struct {
	suggest.Entry
	Preview preview.Result `json:"preview"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decode(w, r, &req) {
		return
	}
	if err := suggest.CheckInput(req.Input); err != nil {
		suggestError(w, err)
		return
	}
	s.remember(r, req.Input)

	entries, err := s.catalog.Match(req.Input)
	if err != nil {
		suggestError(w, err)
		return
	}
	out := make([]match, 0, len(entries))
	for _, e := range entries {
		out = append(out, match{Entry: e, Preview: s.pipeline.Run(r.Context(), e.CodeSnippet)})
	}
	writeJSON(w, http.StatusOK, out)
}

type aiResponse struct {
	suggest.Suggestion
	Preview preview.Result `json:"preview"`
}

func (s *Server) handleSuggestAI(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "AI suggestions are not configured")
		return
	}
	var req suggestRequest
	if !decode(w, r, &req) {
		return
	}
	if err := suggest.CheckInput(req.Input); err != nil {
		suggestError(w, err)
		return
	}
	s.remember(r, req.Input)

	sg, err := s.ai.Suggest(r.Context(), req.Input)
	if err != nil {
		s.log.Error("ai suggestion failed", "id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusBadGateway, "suggestion failed")
		return
	}
	writeJSON(w, http.StatusOK, aiResponse{Suggestion: sg, Preview: s.pipeline.Run(r.Context(), sg.ComponentCode)})
}

type historyResponse struct {
	History     []string `json:"history"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	out := historyResponse{History: []string{}}
	if s.history != nil {
		inputs, err := s.history.Inputs(r.Context())
		if err != nil {
			s.log.Error("reading history", "error", err)
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		out.History = inputs
	}
	out.Suggestions = suggest.Autocomplete(out.History, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) remember(r *http.Request, input string) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(r.Context(), input); err != nil {
		s.log.Warn("saving history", "id", RequestID(r.Context()), "error", err)
	}
}

func suggestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, suggest.ErrNoMatches):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, suggest.ErrInputTooLong), errors.Is(err, suggest.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

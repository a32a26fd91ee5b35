package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/ud"
)

const maxBodyBytes = 1 << 20

type handler struct {
	engine   gorus.Engine
	validate *validator.Validate
}

func newHandler(e gorus.Engine) *handler {
	return &handler{engine: e, validate: validator.New()}
}

type entityRequest struct {
	Start int    `json:"start" validate:"gte=0"`
	End   int    `json:"end" validate:"gte=0"`
	Label string `json:"label" validate:"required"`
}

type relationsRequest struct {
	Language string          `json:"language" validate:"required"`
	Text     string          `json:"text"`
	Entities []entityRequest `json:"entities" validate:"dive"`
	Literal  bool            `json:"literal,omitempty"`
	Strict   bool            `json:"strict,omitempty"`
	Render   bool            `json:"render,omitempty"`
}

type sentencesRequest struct {
	Language string `json:"language" validate:"required"`
	Text     string `json:"text"`
}

// POST /relations
// Without "entities" the configured patterns find them.
func (h *handler) handleRelations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req relationsRequest
	if !h.decode(w, r, &req) {
		return
	}

	spans := make([]relations.Span, len(req.Entities))
	for i, e := range req.Entities {
		spans[i] = relations.Span{Start: e.Start, End: e.End, Label: e.Label}
	}
	if req.Entities == nil {
		found, err := h.engine.Annotate(req.Text)
		switch {
		case errors.Is(err, gorus.ErrNoPatterns):
		case err != nil:
			writeError(w, http.StatusInternalServerError, "annotation failed")
			slog.Error("annotate error", "id", requestID(ctx), "error", err)
			return
		default:
			spans = found
		}
	}

	var opts []gorus.Option
	if req.Literal {
		opts = append(opts, gorus.WithLiteralEquality())
	}
	if req.Strict {
		opts = append(opts, gorus.WithStrictOrphans())
	}

	tree, err := h.engine.Relations(ctx, req.Language, req.Text, spans, opts...)
	if err != nil {
		h.fail(w, r, "relations", err)
		return
	}

	resp := map[string]any{
		"tree":     tree,
		"entities": spans,
	}
	if req.Render {
		resp["outline"] = relations.Sprint(tree)
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /sentences
func (h *handler) handleSentences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req sentencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.engine.Sentences(ctx, req.Language, req.Text)
	if err != nil {
		h.fail(w, r, "sentences", err)
		return
	}

	sentences := make([]sentenceJSON, len(doc.Sentences))
	var outline strings.Builder
	for i, s := range doc.Sentences {
		sentences[i] = toSentenceJSON(s)
		ud.RenderTree(&outline, s)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sentences": sentences,
		"outline":   outline.String(),
	})
}

// GET /languages
func (h *handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": h.engine.Languages(),
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// fail maps engine errors to status codes: caller mistakes are 400,
// linguistic engine failures 502.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, gorus.ErrInvalidLanguage), errors.Is(err, gorus.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gorus.ErrEngineUnavailable), errors.Is(err, gorus.ErrParsingFailed):
		writeError(w, http.StatusBadGateway, "linguistic engine failed")
		slog.Error(op+" error", "id", requestID(r.Context()), "error", err)
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
		slog.Error(op+" error", "id", requestID(r.Context()), "error", err)
	}
}

type wordJSON struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Lemma  string `json:"lemma,omitempty"`
	UPOS   string `json:"upos,omitempty"`
	Feats  string `json:"feats,omitempty"`
	Head   int    `json:"head"`
	Deprel string `json:"deprel"`
	Start  *int   `json:"start,omitempty"`
	End    *int   `json:"end,omitempty"`
}

type sentenceJSON struct {
	ID    string     `json:"id,omitempty"`
	Text  string     `json:"text"`
	Words []wordJSON `json:"words"`
}

func toSentenceJSON(s ud.Sentence) sentenceJSON {
	out := sentenceJSON{ID: s.ID, Text: s.Text, Words: make([]wordJSON, len(s.Words))}
	for i, w := range s.Words {
		wj := wordJSON{
			ID: w.ID, Text: w.Text, Lemma: w.Lemma, UPOS: w.UPOS,
			Feats: w.Feats, Head: w.Head, Deprel: w.Deprel,
		}
		if w.HasOffsets {
			start, end := w.StartChar, w.EndChar
			wj.Start, wj.End = &start, &end
		}
		out.Words[i] = wj
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

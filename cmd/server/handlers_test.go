package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/ud"
)

// fakeEngine answers with a fixed tree and records what it was asked.
type fakeEngine struct {
	err      error
	patterns []relations.Span
	gotSpans []relations.Span
	gotOpts  int
}

func (f *fakeEngine) Relations(_ context.Context, lang, text string, spans []relations.Span, opts ...gorus.Option) (relations.Node, error) {
	f.gotSpans = spans
	f.gotOpts = len(opts)
	if f.err != nil {
		return nil, f.err
	}
	if len(spans) == 0 {
		return relations.Empty{}, nil
	}
	var members []relations.Node
	for _, s := range spans {
		members = append(members, relations.NewEntityNode(relations.Entity{
			Start: s.Start, End: s.End, Label: s.Label, Text: string([]rune(text)[s.Start:s.End]),
		}))
	}
	return relations.NewSet(members...), nil
}

func (f *fakeEngine) Sentences(_ context.Context, lang, text string) (*ud.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ud.Document{Text: text, Sentences: []ud.Sentence{{
		Text: text,
		Words: []ud.Word{
			{ID: 1, Text: "Get", Lemma: "get", UPOS: "VERB", Head: 0, Deprel: "root", StartChar: 0, EndChar: 3, HasOffsets: true},
			{ID: 2, Text: "apples", Lemma: "apple", UPOS: "NOUN", Head: 1, Deprel: "obj", StartChar: 4, EndChar: 10, HasOffsets: true},
		},
	}}}, nil
}

func (f *fakeEngine) Annotate(text string) ([]relations.Span, error) {
	if f.patterns == nil {
		return nil, gorus.ErrNoPatterns
	}
	return f.patterns, nil
}

func (f *fakeEngine) Languages() []string { return []string{"de", "en"} }
func (f *fakeEngine) Close() error        { return nil }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Relations
// ---------------------------------------------------------------------------

func TestHandleRelations(t *testing.T) {
	eng := &fakeEngine{}
	srv := newServer(eng, "", "")

	rec := do(t, srv, "POST", "/relations",
		`{"language":"en","text":"Get apples and pears.","entities":[{"start":4,"end":10,"label":"FRUIT"},{"start":15,"end":20,"label":"FRUIT"}],"literal":true,"render":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Tree    json.RawMessage `json:"tree"`
		Outline string          `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	tree, err := relations.DecodeNode(resp.Tree)
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if tree.Kind() != relations.KindSet || len(tree.Relations()) != 2 {
		t.Errorf("unexpected tree: %s", relations.Sprint(tree))
	}
	if !strings.Contains(resp.Outline, "text:pears") {
		t.Errorf("outline = %q", resp.Outline)
	}
	if eng.gotOpts != 1 {
		t.Errorf("options passed = %d, want 1", eng.gotOpts)
	}
}

func TestHandleRelationsUsesPatterns(t *testing.T) {
	eng := &fakeEngine{patterns: []relations.Span{{Start: 4, End: 10, Label: "FRUIT"}}}
	srv := newServer(eng, "", "")

	rec := do(t, srv, "POST", "/relations", `{"language":"en","text":"Get apples."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if len(eng.gotSpans) != 1 || eng.gotSpans[0].Label != "FRUIT" {
		t.Errorf("spans = %v", eng.gotSpans)
	}

	// An explicit empty list is not replaced by pattern matches.
	do(t, srv, "POST", "/relations", `{"language":"en","text":"Get apples.","entities":[]}`)
	if len(eng.gotSpans) != 0 {
		t.Errorf("spans = %v, want none", eng.gotSpans)
	}
}

func TestHandleRelationsWithoutPatterns(t *testing.T) {
	eng := &fakeEngine{}
	rec := do(t, newServer(eng, "", ""), "POST", "/relations", `{"language":"en","text":"Get apples."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"EMPTY"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestHandleRelationsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"invalid json", nil, `{`, http.StatusBadRequest},
		{"missing language", nil, `{"text":"x"}`, http.StatusBadRequest},
		{"missing label", nil, `{"language":"en","text":"x","entities":[{"start":0,"end":1}]}`, http.StatusBadRequest},
		{"negative offset", nil, `{"language":"en","text":"x","entities":[{"start":-1,"end":1,"label":"A"}]}`, http.StatusBadRequest},
		{"language", fmt.Errorf("%w: xx", gorus.ErrInvalidLanguage), `{"language":"xx","text":"x"}`, http.StatusBadRequest},
		{"entity", fmt.Errorf("%w: span 0:9", gorus.ErrInvalidEntity), `{"language":"en","text":"x"}`, http.StatusBadRequest},
		{"unavailable", fmt.Errorf("parsing en text: %w", gorus.ErrEngineUnavailable), `{"language":"en","text":"x"}`, http.StatusBadGateway},
		{"parsing", gorus.ErrParsingFailed, `{"language":"en","text":"x"}`, http.StatusBadGateway},
		{"construction", gorus.ErrConstructionViolation, `{"language":"en","text":"x"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newServer(&fakeEngine{err: tt.err}, "", ""), "POST", "/relations", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body has no error: %s", rec.Body)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Sentences, languages, health
// ---------------------------------------------------------------------------

func TestHandleSentences(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, "", ""), "POST", "/sentences", `{"language":"en","text":"Get apples"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Sentences []sentenceJSON `json:"sentences"`
		Outline   string         `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Sentences) != 1 || len(resp.Sentences[0].Words) != 2 {
		t.Fatalf("unexpected sentences: %+v", resp.Sentences)
	}
	apples := resp.Sentences[0].Words[1]
	if apples.Start == nil || *apples.Start != 4 || apples.Head != 1 || apples.Deprel != "obj" {
		t.Errorf("unexpected word: %+v", apples)
	}
	if !strings.Contains(resp.Outline, "apples") {
		t.Errorf("outline = %q", resp.Outline)
	}
}

func TestHandleLanguages(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, "", ""), "GET", "/languages", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `["de","en"]`) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, "", ""), "GET", "/relations", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestAuthMiddleware(t *testing.T) {
	srv := newServer(&fakeEngine{}, "secret", "")

	if rec := do(t, srv, "GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	if rec := do(t, srv, "GET", "/languages", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	for _, tt := range []struct {
		header string
		want   int
	}{
		{"Bearer secret", http.StatusOK},
		{"Bearer secreT", http.StatusUnauthorized},
		{"secret", http.StatusUnauthorized},
	} {
		req := httptest.NewRequest("GET", "/languages", nil)
		req.Header.Set("Authorization", tt.header)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("Authorization %q: status = %d, want %d", tt.header, rec.Code, tt.want)
		}
		if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("Authorization %q: no WWW-Authenticate challenge", tt.header)
		}
	}
}

// captureLogs routes the default logger into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogMiddlewareLevels(t *testing.T) {
	logs := captureLogs(t)
	srv := newServer(&fakeEngine{}, "secret", "")

	req := httptest.NewRequest("GET", "/languages", nil)
	req.Header.Set("X-Request-ID", "req-401")
	srv.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-200")
	srv.ServeHTTP(httptest.NewRecorder(), req)

	levels := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if rec["msg"] == "server: request" {
			levels[rec["id"].(string)] = rec["level"].(string)
		}
	}
	if levels["req-401"] != "WARN" || levels["req-200"] != "INFO" {
		t.Errorf("levels = %v", levels)
	}
}

func TestRequestID(t *testing.T) {
	srv := newServer(&fakeEngine{}, "", "")

	rec := do(t, srv, "GET", "/health", "")
	if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated id = %q", id)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-ID"); id != "abc" {
		t.Errorf("id = %q, want abc", id)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, "", "https://example.org"), "OPTIONS", "/relations", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, "GET", "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	logs := captureLogs(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	requestIDMiddleware(h).ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(logs.String(), `"id":"req-panic"`) {
		t.Errorf("panic log has no request id: %s", logs)
	}
}

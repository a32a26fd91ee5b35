package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brunobiangulo/gorus/ud"
)

// DefaultUDPipeURL is the public UDPipe 2 REST service.
const DefaultUDPipeURL = "https://lindat.mff.cuni.cz/services/udpipe/api"

// defaultModels are the UDPipe models used when the configuration names
// none for a language. UDPipe resolves model name prefixes to the newest
// matching model.
var defaultModels = map[string]string{
	"da": "danish-ddt",
	"de": "german-gsd",
	"en": "english-ewt",
	"es": "spanish-ancora",
	"fr": "french-gsd",
	"it": "italian-isdt",
	"ru": "russian-syntagrus",
}

// UDPipe is a client for the UDPipe REST API. It requests token ranges so
// every word carries character offsets into the input.
type UDPipe struct {
	cfg    Config
	client *http.Client
}

// NewUDPipe creates a UDPipe client.
func NewUDPipe(cfg Config) *UDPipe {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultUDPipeURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := 60 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &UDPipe{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (u *UDPipe) Name() string { return "udpipe" }

// Model returns the model requested for lang.
func (u *UDPipe) Model(lang string) string {
	if m, ok := u.cfg.Models[lang]; ok && m != "" {
		return m
	}
	if m, ok := defaultModels[lang]; ok {
		return m
	}
	return lang
}

type udpipeResponse struct {
	Model  string `json:"model"`
	Result string `json:"result"`
}

func (u *UDPipe) Parse(ctx context.Context, lang, text string) (*ud.Document, error) {
	model := u.Model(lang)
	form := url.Values{
		"data":      {text},
		"model":     {model},
		"tokenizer": {"ranges"},
		"tagger":    {""},
		"parser":    {""},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u.cfg.BaseURL+"/process", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: udpipe request failed: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading udpipe response: %v", ErrEngineUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: udpipe error %d: %s", ErrEngineUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out udpipeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding udpipe response: %v", ErrParsingFailed, err)
	}
	doc, err := ud.ParseCoNLLU(out.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	doc.Text = text

	slog.Debug("nlp: udpipe parse",
		"lang", lang, "model", out.Model, "sentences", len(doc.Sentences),
		"elapsed", time.Since(start))
	return doc, nil
}

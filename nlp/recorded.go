package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/brunobiangulo/gorus/ud"
)

// Recorded serves parses previously stored as CoNLL-U files, one file per
// language and text. It lets tests and offline runs work without a
// linguistic service.
type Recorded struct {
	dir string

	mu   sync.RWMutex
	docs map[string]string // key -> CoNLL-U
}

// NewRecorded creates an engine reading recordings from dir. An empty dir
// serves only what is added with Add.
func NewRecorded(dir string) *Recorded {
	return &Recorded{dir: dir, docs: make(map[string]string)}
}

func (r *Recorded) Name() string { return "recorded" }

// RecordingName returns the file name under which the parse of text in
// lang is recorded.
func RecordingName(lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return lang + "-" + hex.EncodeToString(sum[:8]) + ".conllu"
}

// Add registers a recording in memory.
func (r *Recorded) Add(lang, text, conllu string) {
	r.mu.Lock()
	r.docs[RecordingName(lang, text)] = conllu
	r.mu.Unlock()
}

func (r *Recorded) Parse(_ context.Context, lang, text string) (*ud.Document, error) {
	name := RecordingName(lang, text)

	r.mu.RLock()
	conllu, ok := r.docs[name]
	r.mu.RUnlock()

	if !ok {
		if r.dir == "" {
			return nil, fmt.Errorf("%w: no recording for %s text", ErrEngineUnavailable, lang)
		}
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no recording %s", ErrEngineUnavailable, name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading recording: %w", err)
		}
		conllu = string(data)
	}

	doc, err := ud.ParseCoNLLU(conllu)
	if err != nil {
		return nil, fmt.Errorf("%w: recording %s: %v", ErrParsingFailed, name, err)
	}
	doc.Text = text
	return doc, nil
}

// Record writes doc as the recording for text in lang below dir.
func Record(dir, lang, text string, doc *ud.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating recording directory: %w", err)
	}
	path := filepath.Join(dir, RecordingName(lang, text))
	if err := os.WriteFile(path, []byte(ud.FormatCoNLLU(doc)), 0o644); err != nil {
		return fmt.Errorf("writing recording: %w", err)
	}
	return nil
}

// Recorder wraps an engine and records every successful parse below dir.
type Recorder struct {
	Engine
	dir string
}

// NewRecorder creates a recording decorator.
func NewRecorder(e Engine, dir string) *Recorder {
	return &Recorder{Engine: e, dir: dir}
}

func (r *Recorder) Parse(ctx context.Context, lang, text string) (*ud.Document, error) {
	doc, err := r.Engine.Parse(ctx, lang, text)
	if err != nil {
		return nil, err
	}
	if err := Record(r.dir, lang, text, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

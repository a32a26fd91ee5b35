package ud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned for input that is not valid CoNLL-U.
var ErrMalformed = errors.New("ud: malformed CoNLL-U")

// ParseCoNLLU parses a CoNLL-U string. See ReadCoNLLU.
func ParseCoNLLU(s string) (*Document, error) {
	return ReadCoNLLU(strings.NewReader(s))
}

// ReadCoNLLU reads sentences in CoNLL-U format. Character offsets are
// taken from the MISC column, either stanza style (start_char=..|end_char=..)
// or UDPipe style (TokenRange=start:end). Words covered by a multiword
// token range line carry no offsets of their own. Empty nodes (ids like
// 8.1) are skipped. Document.Text is left for the caller to set.
func ReadCoNLLU(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var current *Sentence
	flush := func() {
		if current != nil && len(current.Words) > 0 {
			doc.Sentences = append(doc.Sentences, *current)
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current == nil {
			current = &Sentence{}
		}

		if strings.HasPrefix(line, "#") {
			key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), "=")
			if !ok {
				continue
			}
			switch strings.TrimSpace(key) {
			case "text":
				current.Text = strings.TrimSpace(value)
			case "sent_id":
				current.ID = strings.TrimSpace(value)
			}
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 10 {
			return nil, fmt.Errorf("%w: line %d: expected 10 columns, got %d", ErrMalformed, lineNo, len(fields))
		}

		id := fields[0]
		switch {
		case strings.Contains(id, "."):
			continue
		case strings.Contains(id, "-"):
			tok, err := parseRange(id, fields)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
			}
			current.Tokens = append(current.Tokens, tok)
			continue
		}

		w, err := parseWord(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
		if w.ID != len(current.Words)+1 {
			return nil, fmt.Errorf("%w: line %d: word id %d out of sequence", ErrMalformed, lineNo, w.ID)
		}
		if current.coveredByToken(w.ID) {
			w.HasOffsets = false
			w.StartChar, w.EndChar = 0, 0
		}
		current.Words = append(current.Words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading CoNLL-U: %w", err)
	}
	flush()

	for i := range doc.Sentences {
		if err := doc.Sentences[i].validateHeads(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *Sentence) coveredByToken(id int) bool {
	for _, t := range s.Tokens {
		if id >= t.First && id <= t.Last {
			return true
		}
	}
	return false
}

func (s *Sentence) validateHeads() error {
	for _, w := range s.Words {
		if w.Head < 0 || w.Head > len(s.Words) {
			return fmt.Errorf("%w: sentence %q: word %d has head %d outside the sentence", ErrMalformed, s.ID, w.ID, w.Head)
		}
	}
	return nil
}

func parseRange(id string, fields []string) (MultiwordToken, error) {
	first, last, _ := strings.Cut(id, "-")
	a, err := strconv.Atoi(first)
	if err != nil {
		return MultiwordToken{}, fmt.Errorf("bad range id %q", id)
	}
	b, err := strconv.Atoi(last)
	if err != nil || b < a {
		return MultiwordToken{}, fmt.Errorf("bad range id %q", id)
	}
	tok := MultiwordToken{First: a, Last: b, Text: fields[1], Misc: column(fields[9])}
	tok.StartChar, tok.EndChar, tok.HasOffsets = offsetsFromMisc(tok.Misc)
	return tok, nil
}

func parseWord(fields []string) (Word, error) {
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Word{}, fmt.Errorf("bad word id %q", fields[0])
	}
	head := 0
	if h := fields[6]; h != "_" {
		head, err = strconv.Atoi(h)
		if err != nil {
			return Word{}, fmt.Errorf("bad head %q", h)
		}
	}
	w := Word{
		ID:     id,
		Text:   fields[1],
		Lemma:  column(fields[2]),
		UPOS:   column(fields[3]),
		XPOS:   column(fields[4]),
		Feats:  column(fields[5]),
		Head:   head,
		Deprel: column(fields[7]),
		Misc:   column(fields[9]),
	}
	w.StartChar, w.EndChar, w.HasOffsets = offsetsFromMisc(w.Misc)
	return w, nil
}

func column(s string) string {
	if s == "_" {
		return ""
	}
	return s
}

// offsetsFromMisc extracts character offsets from a MISC column.
func offsetsFromMisc(misc string) (start, end int, ok bool) {
	var hasStart, hasEnd bool
	for _, part := range strings.Split(misc, "|") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "start_char":
			if n, err := strconv.Atoi(value); err == nil {
				start, hasStart = n, true
			}
		case "end_char":
			if n, err := strconv.Atoi(value); err == nil {
				end, hasEnd = n, true
			}
		case "TokenRange":
			a, b, cut := strings.Cut(value, ":")
			if !cut || hasStart {
				continue
			}
			sa, errA := strconv.Atoi(a)
			sb, errB := strconv.Atoi(b)
			if errA == nil && errB == nil {
				start, end = sa, sb
				hasStart, hasEnd = true, true
			}
		}
	}
	if !hasStart {
		return 0, 0, false
	}
	if !hasEnd {
		end = start
	}
	return start, end, true
}

// WriteCoNLLU writes doc in CoNLL-U format. Offsets are written to MISC as
// start_char/end_char unless MISC already carries them.
func WriteCoNLLU(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for _, s := range doc.Sentences {
		if s.ID != "" {
			fmt.Fprintf(bw, "# sent_id = %s\n", s.ID)
		}
		if s.Text != "" {
			fmt.Fprintf(bw, "# text = %s\n", s.Text)
		}
		for _, word := range s.Words {
			for _, t := range s.Tokens {
				if t.First == word.ID {
					misc := miscWithOffsets(t.Misc, t.StartChar, t.EndChar, t.HasOffsets)
					fmt.Fprintf(bw, "%d-%d\t%s\t_\t_\t_\t_\t_\t_\t_\t%s\n", t.First, t.Last, t.Text, blank(misc))
				}
			}
			misc := miscWithOffsets(word.Misc, word.StartChar, word.EndChar, word.HasOffsets)
			fmt.Fprintf(bw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t_\t%s\n",
				word.ID, word.Text, blank(word.Lemma), blank(word.UPOS), blank(word.XPOS),
				blank(word.Feats), word.Head, blank(word.Deprel), blank(misc))
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// FormatCoNLLU renders doc as a CoNLL-U string.
func FormatCoNLLU(doc *Document) string {
	var sb strings.Builder
	_ = WriteCoNLLU(&sb, doc)
	return sb.String()
}

func miscWithOffsets(misc string, start, end int, has bool) string {
	if !has {
		return misc
	}
	if _, _, ok := offsetsFromMisc(misc); ok {
		return misc
	}
	offsets := fmt.Sprintf("start_char=%d|end_char=%d", start, end)
	if misc == "" {
		return offsets
	}
	return misc + "|" + offsets
}

func blank(s string) string {
	if s == "" {
		return "_"
	}
	return s
}

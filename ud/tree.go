package ud

import (
	"fmt"
	"io"
	"strings"
)

// RenderTree writes the dependency tree of s as an indented outline, one
// word per line, starting at the words attached to ROOT.
func RenderTree(w io.Writer, s Sentence) {
	children := make(map[int][]int)
	for _, word := range s.Words {
		children[word.Head] = append(children[word.Head], word.ID)
	}

	visited := make(map[int]bool)
	var walk func(id int, prefix string, last, root bool)
	walk = func(id int, prefix string, last, root bool) {
		word, ok := s.Word(id)
		if !ok || visited[id] {
			return
		}
		visited[id] = true

		connector := ""
		if !root {
			connector = "├─ "
			if last {
				connector = "└─ "
			}
		}
		fmt.Fprintf(w, "%s%s%s (id:%d, head:%d, lemma:%s, upos:%s, deprel:%s, feats:%s)\n",
			prefix, connector, word.Text, word.ID, word.Head, word.Lemma, word.UPOS, word.Deprel, word.Feats)

		if !root {
			if last {
				prefix += "   "
			} else {
				prefix += "│  "
			}
		}
		kids := children[id]
		for i, child := range kids {
			walk(child, prefix, i == len(kids)-1, false)
		}
	}

	roots := children[Root]
	for i, id := range roots {
		walk(id, "", i == len(roots)-1, true)
	}
}

// SprintTree returns RenderTree output as a string.
func SprintTree(s Sentence) string {
	var sb strings.Builder
	RenderTree(&sb, s)
	return sb.String()
}

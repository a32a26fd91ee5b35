package relations

import (
	"fmt"
	"io"
	"strings"
)

// Render writes n as an indented outline, one line per node. Entity lines
// show label and text. The outline is meant for debugging; its format may
// change.
func Render(w io.Writer, n Node) {
	fmt.Fprintln(w, describe(n))
	renderMembers(w, n, "")
}

// Sprint returns the Render outline of n.
func Sprint(n Node) string {
	var sb strings.Builder
	Render(&sb, n)
	return sb.String()
}

func renderMembers(w io.Writer, n Node, prefix string) {
	members := nodeRelations(n)
	var visible []Node
	for _, m := range members {
		if m.Kind() != KindEmpty {
			visible = append(visible, m)
		}
	}
	for i, m := range visible {
		last := i == len(visible)-1
		branch, indent := "├─ ", "│  "
		if last {
			branch, indent = "└─ ", "   "
		}
		fmt.Fprintln(w, prefix+branch+describe(m))
		renderMembers(w, m, prefix+indent)
	}
}

func describe(n Node) string {
	switch n := n.(type) {
	case Empty, Set, Not:
		return n.Kind().String()
	case EntityNode:
		return fmt.Sprintf("%s (label:%s, text:%s)", n.Kind(), n.entity.Label, n.entity.Text)
	}
	panic(fmt.Sprintf("relations: unknown node type %T", n))
}

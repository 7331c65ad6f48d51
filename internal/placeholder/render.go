package placeholder

import (
	"strconv"
	"strings"
)

// snipMateVariables maps TextMate environment variables to the snipMate
// expression producing the same value.
var snipMateVariables = map[string]string{
	"TM_SELECTED_TEXT": "${VISUAL}",
	"TM_FILENAME":      "`expand('%:t')`",
	"TM_FILEPATH":      "`expand('%:p')`",
	"TM_DIRECTORY":     "`expand('%:p:h')`",
	"TM_LINE_NUMBER":   "`line('.')`",
	"TM_CURRENT_LINE":  "`getline('.')`",
	"TM_CURRENT_WORD":  "`expand('<cword>')`",
}

// Translate rewrites a TextMate snippet body into snipMate syntax.
func Translate(body string) string {
	return Render(Parse(body))
}

// Render writes nodes using snipMate placeholder syntax.
//
// For each tab stop index the primary occurrence becomes ${N} or
// ${N:default} and every other occurrence becomes the mirror $N. The primary
// is the first occurrence whose placeholder holds other tab stops, else the
// first with a placeholder, else the first plain one. The final cursor is
// always ${0}. Each input marker yields exactly one output marker: a mirror
// keeps the tab stops nested in its placeholder by writing them after $N, and
// a mapped variable whose default holds tab stops renders that default.
func Render(nodes []Node) string {
	nested := nestedStops(nodes)
	r := &renderer{primary: primaries(nodes, nested), nested: nested}
	var sb strings.Builder
	r.render(&sb, nodes)
	return sb.String()
}

type renderer struct {
	// primary maps a tab stop index to the ordinal of its primary occurrence.
	primary map[int]int
	// nested[ord] reports whether the node numbered ord has tab stops below it.
	nested  []bool
	ordinal int
}

func (r *renderer) render(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Text:
			r.ordinal++
			sb.WriteString(v.Value)
		case TabStop:
			ord := r.ordinal
			r.ordinal++
			r.renderTabStop(sb, v, ord)
		case Variable:
			ord := r.ordinal
			r.ordinal++
			r.renderVariable(sb, v, ord)
		}
	}
}

func (r *renderer) renderTabStop(sb *strings.Builder, ts TabStop, ord int) {
	idx := strconv.Itoa(ts.Index)

	if !ts.IsFinal() && r.primary[ts.Index] != ord {
		sb.WriteString("$" + idx)
		r.renderStops(sb, ts.Placeholder)
		return
	}

	sb.WriteString("${" + idx)
	if ts.HasPlaceholder && len(ts.Placeholder) > 0 {
		sb.WriteString(":")
		r.render(sb, ts.Placeholder)
	}
	sb.WriteString("}")
}

func (r *renderer) renderVariable(sb *strings.Builder, v Variable, ord int) {
	if expr, ok := snipMateVariables[v.Name]; ok && !r.nested[ord] {
		sb.WriteString(expr)
		r.skip(v.Default)
		return
	}
	if v.HasDefault {
		r.render(sb, v.Default)
		return
	}
	sb.WriteString(v.Raw())
}

// renderStops writes only the tab stops found in nodes, dropping the text
// around them.
func (r *renderer) renderStops(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		r.ordinal++
		switch v := n.(type) {
		case TabStop:
			r.renderTabStop(sb, v, r.ordinal-1)
		case Variable:
			r.renderStops(sb, v.Default)
		}
	}
}

// skip advances the ordinal counter past nodes that are not rendered, keeping
// it aligned with the numbering used by primaries.
func (r *renderer) skip(nodes []Node) {
	walk(nodes, func(Node) { r.ordinal++ })
}

// primaries picks the primary occurrence of every tab stop index, numbering
// nodes in the same depth-first order render uses. Every tab stop in the tree
// is rendered, so any occurrence can serve.
func primaries(nodes []Node, nested []bool) map[int]int {
	type choice struct {
		ord  int
		rank int
	}
	best := make(map[int]choice)
	ord := 0
	walk(nodes, func(n Node) {
		defer func() { ord++ }()
		ts, ok := n.(TabStop)
		if !ok || ts.IsFinal() {
			return
		}
		rank := 2
		switch {
		case ts.Transform != "":
			rank = 0
		case nested[ord]:
			rank = 4
		case ts.HasPlaceholder:
			rank = 3
		}
		if cur, seen := best[ts.Index]; !seen || rank > cur.rank {
			best[ts.Index] = choice{ord: ord, rank: rank}
		}
	})

	out := make(map[int]int, len(best))
	for idx, c := range best {
		out[idx] = c.ord
	}
	return out
}

// nestedStops numbers nodes depth-first and reports, per node, whether a tab
// stop appears anywhere below it.
func nestedStops(nodes []Node) []bool {
	var out []bool
	var mark func([]Node) bool
	mark = func(nodes []Node) bool {
		found := false
		for _, n := range nodes {
			ord := len(out)
			out = append(out, false)
			var children []Node
			switch v := n.(type) {
			case TabStop:
				found = true
				children = v.Placeholder
			case Variable:
				children = v.Default
			}
			if mark(children) {
				out[ord] = true
				found = true
			}
		}
		return found
	}
	mark(nodes)
	return out
}

// Package diagram lays a model collection out as a relationship graph.
//
// Every model becomes a node. A field with a ref produces an edge only when a
// model of that name exists in the same collection; other refs are kept as
// UnresolvedRef for diagnostics.
package diagram

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/schemagraph/internal/schema"
)

// Diagram is the renderable form of a model collection.
type Diagram struct {
	Nodes      []Node          `json:"nodes"`
	Edges      []Edge          `json:"edges"`
	Unresolved []UnresolvedRef `json:"unresolved,omitempty"`

	graph graph.Graph[string, string]
}

// Build creates a diagram from models. Node order follows model order and
// edge order follows field order.
func Build(models []schema.Model) *Diagram {
	d := &Diagram{
		Nodes: make([]Node, 0, len(models)),
		Edges: []Edge{},
		graph: graph.New(graph.StringHash, graph.Directed()),
	}

	for _, m := range models {
		d.Nodes = append(d.Nodes, Node{ID: m.Name, FilePath: m.FilePath, Fields: m.Fields})
		_ = d.graph.AddVertex(m.Name,
			graph.VertexAttribute("shape", "record"),
			graph.VertexAttribute("label", recordLabel(m)),
		)
	}

	// Parallel fields between the same two models share one graph edge.
	labels := make(map[[2]string][]string)
	var pairs [][2]string

	for _, m := range models {
		for _, f := range m.Fields {
			if !f.HasRef() {
				continue
			}
			if _, err := d.graph.Vertex(f.Ref); err != nil {
				d.Unresolved = append(d.Unresolved, UnresolvedRef{Model: m.Name, Field: f.Name, Ref: f.Ref})
				continue
			}

			d.Edges = append(d.Edges, Edge{
				ID:      fmt.Sprintf("%s-%s-%s", m.Name, f.Name, f.Ref),
				Source:  m.Name,
				Target:  f.Ref,
				Field:   f.Name,
				IsArray: f.IsArray,
			})

			key := [2]string{m.Name, f.Ref}
			if _, ok := labels[key]; !ok {
				pairs = append(pairs, key)
			}
			label := f.Name
			if f.IsArray {
				label += "[]"
			}
			labels[key] = append(labels[key], label)
		}
	}

	for _, key := range pairs {
		_ = d.graph.AddEdge(key[0], key[1], graph.EdgeAttribute("label", strings.Join(labels[key], ", ")))
	}

	return d
}

// DOT writes the diagram in Graphviz format.
func (d *Diagram) DOT(w io.Writer) error {
	if err := draw.DOT(d.graph, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return fmt.Errorf("failed to render DOT: %w", err)
	}
	return nil
}

// Related returns the models that reference name or are referenced by it,
// sorted. It returns nil for unknown models.
func (d *Diagram) Related(name string) []string {
	adjacency, err := d.graph.AdjacencyMap()
	if err != nil {
		return nil
	}
	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return nil
	}
	if _, ok := adjacency[name]; !ok {
		return nil
	}

	seen := make(map[string]bool)
	for target := range adjacency[name] {
		seen[target] = true
	}
	for source := range predecessors[name] {
		seen[source] = true
	}
	delete(seen, name)

	related := make([]string, 0, len(seen))
	for n := range seen {
		related = append(related, n)
	}
	sort.Strings(related)
	return related
}

// Node returns the node for a model name.
func (d *Diagram) Node(name string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == name {
			return n, true
		}
	}
	return Node{}, false
}

func recordLabel(m schema.Model) string {
	var b strings.Builder
	b.WriteString("{")
	b.WriteString(escapeRecord(m.Name))
	b.WriteString("|")
	for i, f := range m.Fields {
		if i > 0 {
			b.WriteString("\\l")
		}
		b.WriteString(escapeRecord(fieldSummary(f)))
	}
	b.WriteString("\\l}")
	return b.String()
}

// fieldSummary renders a field as "name: Type[]*" where * marks required.
func fieldSummary(f schema.Field) string {
	s := f.Name + ": " + string(f.Type)
	if f.IsArray {
		s += "[]"
	}
	if f.Required {
		s += "*"
	}
	if f.HasRef() {
		s += " -> " + f.Ref
	}
	return s
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
	`"`, `\"`,
)

func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}

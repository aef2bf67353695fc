// Package depgraph resolves foreign-key dependencies between tables into a
// deterministic creation/insertion order.
package depgraph

import (
	"github.com/sin5ddd/sqlew/internal/schema"
)

// CycleReport names a table revisited while still in progress during the
// sort. Cycles are non-fatal: the sorter breaks the edge and keeps going,
// so the resulting order is not a strict total order inside a true cycle.
// Callers that require an acyclic schema assert len(cycles) == 0.
type CycleReport struct {
	Table string
}

// Graph is the table dependency graph: each table maps to the tables it
// depends on, restricted to edges whose referenced table is in the working
// set. Edges leaving the set (subset exports) are ignored, not errors.
type Graph struct {
	order []string            // input order, preserved for determinism
	deps  map[string][]string // table -> tables it depends on
}

// Build constructs the graph from the working set's foreign keys.
func Build(tables []schema.TableDefinition) *Graph {
	inSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		inSet[t.Name] = true
	}

	g := &Graph{deps: make(map[string][]string, len(tables))}
	for _, t := range tables {
		g.order = append(g.order, t.Name)
		seen := map[string]bool{}
		for _, fk := range t.ForeignKeys {
			// Self-references cannot constrain creation order.
			if fk.RefTable == t.Name || !inSet[fk.RefTable] || seen[fk.RefTable] {
				continue
			}
			seen[fk.RefTable] = true
			g.deps[t.Name] = append(g.deps[t.Name], fk.RefTable)
		}
	}
	return g
}

// Sort returns the tables in dependency order: for every retained edge
// (A depends on B), B precedes A, except for edges broken by cycle
// detection, which are reported.
//
// The sort is a depth-first post-order walk over the input ordering, so
// identical input always yields identical output; repeated dumps of the
// same schema are byte-for-byte diffable.
func (g *Graph) Sort() ([]string, []CycleReport) {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make(map[string]int, len(g.order))
	var sorted []string
	var cycles []CycleReport

	var visit func(name string)
	visit = func(name string) {
		switch state[name] {
		case done:
			return
		case inProgress:
			// Revisiting an in-progress table is a cycle. Mark it and
			// return so the walk terminates; the edge stays broken.
			cycles = append(cycles, CycleReport{Table: name})
			return
		}
		state[name] = inProgress
		for _, dep := range g.deps[name] {
			visit(dep)
		}
		state[name] = done
		sorted = append(sorted, name)
	}

	for _, name := range g.order {
		visit(name)
	}
	return sorted, cycles
}

// SortTables is a convenience wrapper that returns full definitions in
// sorted order rather than names.
func SortTables(tables []schema.TableDefinition) ([]schema.TableDefinition, []CycleReport) {
	byName := make(map[string]schema.TableDefinition, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	names, cycles := Build(tables).Sort()
	out := make([]schema.TableDefinition, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out, cycles
}

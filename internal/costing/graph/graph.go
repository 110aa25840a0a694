// Package graph models recipe composition: which recipes use which other
// recipes as inputs. It answers ancestor and descendant queries, guards
// new edges against cycles and produces a leaves-first evaluation order.
package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/platecost/platecost/internal/models"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("recipe composition contains a cycle")

// CycleError names one recipe that sits on a cycle in the stored edges.
type CycleError struct {
	RecipeID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("recipe %s is part of a composition cycle", e.RecipeID)
}

// Is makes errors.Is(err, ErrCycle) hold.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// Set is a set of recipe ids.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Graph holds recipe-to-recipe "uses" edges. It is read-only after New
// and safe for concurrent use.
type Graph struct {
	uses   map[string][]string // recipe -> recipes it uses
	usedBy map[string][]string // recipe -> recipes that use it
}

// New builds the graph from recipe lines. Lines whose input is an
// ingredient are not edges and are skipped. Duplicate edges collapse.
func New(lines []models.RecipeLine) *Graph {
	g := &Graph{
		uses:   make(map[string][]string),
		usedBy: make(map[string][]string),
	}

	for _, l := range lines {
		if !l.UsesRecipe() || l.RecipeID == "" || l.InputID == "" {
			continue
		}
		if slices.Contains(g.uses[l.RecipeID], l.InputID) {
			continue
		}
		g.uses[l.RecipeID] = append(g.uses[l.RecipeID], l.InputID)
		g.usedBy[l.InputID] = append(g.usedBy[l.InputID], l.RecipeID)
	}

	for _, v := range g.uses {
		slices.Sort(v)
	}
	for _, v := range g.usedBy {
		slices.Sort(v)
	}

	return g
}

// Inputs returns the recipes id uses directly.
func (g *Graph) Inputs(id string) []string {
	return slices.Clone(g.uses[id])
}

// Ancestors returns every recipe that transitively uses id. The visited
// set guarantees termination even if the stored edges are cyclic; id
// itself is included only when it lies on a cycle.
func (g *Graph) Ancestors(id string) Set {
	return reach(id, g.usedBy)
}

// Descendants returns every recipe id transitively uses.
func (g *Graph) Descendants(id string) Set {
	return reach(id, g.uses)
}

func reach(start string, next map[string][]string) Set {
	seen := make(Set)
	stack := slices.Clone(next[start])

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen.Has(n) {
			continue
		}
		seen[n] = struct{}{}
		stack = append(stack, next[n]...)
	}

	return seen
}

// Blocked returns the recipes that may not be added as inputs of id:
// id itself and everything that already uses it.
func (g *Graph) Blocked(id string) Set {
	blocked := g.Ancestors(id)
	blocked[id] = struct{}{}
	return blocked
}

// WouldCreateCycle reports whether making recipeID use candidateID would
// close a loop: either they are the same recipe, or candidateID already
// uses recipeID directly or transitively.
func (g *Graph) WouldCreateCycle(recipeID, candidateID string) bool {
	if recipeID == candidateID {
		return true
	}
	return g.Ancestors(recipeID).Has(candidateID)
}

// TopoOrder returns ids and all of their descendants ordered so every
// recipe appears after the recipes it uses. Ties break on id, so the
// order is deterministic. A cycle anywhere in that subgraph yields a
// *CycleError naming a recipe on the cycle.
func (g *Graph) TopoOrder(ids []string) ([]string, error) {
	order, stuck := g.Order(ids)
	if len(stuck) > 0 {
		return nil, &CycleError{RecipeID: g.CycleMember(stuck)}
	}
	return order, nil
}

// Order is TopoOrder without failing: recipes that cannot be ordered
// (on a cycle or depending on one) are returned in stuck, sorted.
func (g *Graph) Order(ids []string) (order, stuck []string) {
	nodes := make(Set)
	for _, id := range ids {
		nodes[id] = struct{}{}
		for d := range g.Descendants(id) {
			nodes[d] = struct{}{}
		}
	}

	pending := make(map[string]int, len(nodes))
	var ready []string
	for n := range nodes {
		pending[n] = len(g.uses[n])
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}
	slices.Sort(ready)

	order = make([]string, 0, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		released := false
		for _, dep := range g.usedBy[n] {
			if !nodes.Has(dep) {
				continue
			}
			pending[dep]--
			if pending[dep] == 0 {
				ready = append(ready, dep)
				released = true
			}
		}
		if released {
			slices.Sort(ready)
		}
	}

	for n, count := range pending {
		if count > 0 {
			stuck = append(stuck, n)
		}
	}
	slices.Sort(stuck)

	return order, stuck
}

// CycleMember walks backwards from the first stuck recipe through stuck
// inputs until a recipe repeats; that recipe is on a cycle. stuck must be
// the leftover set from Order.
func (g *Graph) CycleMember(stuck []string) string {
	if len(stuck) == 0 {
		return ""
	}

	inStuck := make(Set, len(stuck))
	for _, s := range stuck {
		inStuck[s] = struct{}{}
	}

	visited := make(Set)
	cur := stuck[0]
	for !visited.Has(cur) {
		visited[cur] = struct{}{}
		next := ""
		for _, in := range g.uses[cur] {
			if inStuck.Has(in) {
				next = in
				break
			}
		}
		if next == "" {
			return cur
		}
		cur = next
	}
	return cur
}

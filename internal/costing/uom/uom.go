// Package uom resolves multiplicative conversion factors between units of
// measure from a set of directed conversion edges.
//
// An edge (from, to, factor) means 1 from = factor to. Edges are never
// inverted implicitly; a kitchen that wants kg<->g in both directions
// stores both rows.
package uom

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/platecost/platecost/internal/models"
)

// DefaultTolerance is the relative difference above which two paths
// between the same units count as conflicting.
const DefaultTolerance = 1e-4

// ErrUnresolvable is matched by every UnresolvableError.
var ErrUnresolvable = errors.New("no conversion path")

// UnresolvableError reports that no chain of edges leads from From to To.
type UnresolvableError struct {
	From string
	To   string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("no conversion path from %q to %q", e.From, e.To)
}

// Is makes errors.Is(err, ErrUnresolvable) hold.
func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}

// Conflict records two paths between the same pair of units whose
// products disagree. The first factor is the one Resolve returns.
type Conflict struct {
	From   string
	To     string
	First  float64
	Second float64
}

type arc struct {
	to     string
	factor float64
}

// Graph is an immutable conversion graph. It is safe for concurrent use.
type Graph struct {
	adj       map[string][]arc
	units     []string
	invalid   []models.UomConversion
	logger    *slog.Logger
	tolerance float64
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger routes conflict warnings to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol float64) Option {
	return func(g *Graph) {
		if tol >= 0 {
			g.tolerance = tol
		}
	}
}

// NewGraph builds a graph from conversion rows. Neighbours keep the order
// the rows were supplied in, which makes the first path found by Resolve
// deterministic. Rows with a non-positive factor are ignored and reported
// by InvalidEdges.
func NewGraph(edges []models.UomConversion, opts ...Option) *Graph {
	g := &Graph{
		adj:       make(map[string][]arc),
		logger:    slog.Default(),
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(g)
	}

	seen := make(map[string]bool)
	addUnit := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			g.units = append(g.units, u)
		}
	}

	for _, e := range edges {
		from, to := Normalize(e.FromUnit), Normalize(e.ToUnit)
		addUnit(from)
		addUnit(to)
		if from == "" || to == "" || !(e.Factor > 0) || math.IsInf(e.Factor, 0) {
			g.invalid = append(g.invalid, e)
			continue
		}
		g.adj[from] = append(g.adj[from], arc{to: to, factor: e.Factor})
	}
	slices.Sort(g.units)

	return g
}

// Normalize trims surrounding whitespace from a unit symbol. Case is
// significant.
func Normalize(unit string) string {
	return strings.TrimSpace(unit)
}

// Resolve returns the factor f such that quantity_in_from * f =
// quantity_in_to. Identical units resolve to 1 without needing an edge.
// If more than one path reaches the target with different products, the
// first one found breadth-first wins and a warning is logged.
func (g *Graph) Resolve(from, to string) (float64, error) {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return 1.0, nil
	}

	factors := g.walk(from, func(node string, first, second float64) {
		if node == to {
			g.logger.Warn("conflicting conversion paths",
				"from", from,
				"to", to,
				"used_factor", first,
				"other_factor", second,
			)
		}
	})

	f, ok := factors[to]
	if !ok {
		return 0, &UnresolvableError{From: from, To: to}
	}
	return f, nil
}

// walk runs a breadth-first traversal from source and returns the first
// product found for every reachable unit. onConflict is called for each
// later path whose product differs from the recorded one.
func (g *Graph) walk(source string, onConflict func(node string, first, second float64)) map[string]float64 {
	factors := map[string]float64{source: 1.0}
	queue := []string{source}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		base := factors[cur]

		for _, a := range g.adj[cur] {
			product := base * a.factor
			if prev, visited := factors[a.to]; visited {
				if a.to != source && !g.agree(prev, product) && onConflict != nil {
					onConflict(a.to, prev, product)
				}
				continue
			}
			factors[a.to] = product
			queue = append(queue, a.to)
		}
	}

	return factors
}

func (g *Graph) agree(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return math.Abs(a-b)/scale <= g.tolerance
}

// Units lists every unit symbol that appears in the graph, sorted.
func (g *Graph) Units() []string {
	return slices.Clone(g.units)
}

// InvalidEdges returns the rows NewGraph refused to load.
func (g *Graph) InvalidEdges() []models.UomConversion {
	return slices.Clone(g.invalid)
}

// Audit walks from every unit and reports every pair reachable by two
// paths with different products. The result is sorted by (From, To).
func (g *Graph) Audit() []Conflict {
	var conflicts []Conflict
	reported := make(map[[2]string]bool)

	for _, src := range g.units {
		g.walk(src, func(node string, first, second float64) {
			key := [2]string{src, node}
			if reported[key] {
				return
			}
			reported[key] = true
			conflicts = append(conflicts, Conflict{From: src, To: node, First: first, Second: second})
		})
	}

	slices.SortFunc(conflicts, func(a, b Conflict) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return conflicts
}

// Resolve is a convenience for one-off lookups over a set of rows.
func Resolve(from, to string, edges []models.UomConversion) (float64, error) {
	return NewGraph(edges).Resolve(from, to)
}

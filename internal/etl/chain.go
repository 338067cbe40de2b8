package etl

import (
	"fmt"
	"strings"

	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/api"
)

// Edge is one directed evolution step between two species names. Details is
// nil when the chain carried no trigger records for the step.
type Edge struct {
	FromName string
	ToName   string
	Details  *string
}

// FlattenChain walks an evolution-chain document depth-first and returns
// its directed edges in pre-order: each parent→child edge is emitted before
// any edge of the child's own subtree, siblings in document order. Pure
// function of its input; no I/O, no store access.
func FlattenChain(chainDoc any) []Edge {
	roots := api.List(chainDoc, "$.chain")
	if len(roots) == 0 {
		return nil
	}
	var edges []Edge
	walkChain(roots[0], &edges)
	return edges
}

func walkChain(node any, edges *[]Edge) {
	fromName, _ := api.String(node, "$.species.name")
	for _, child := range api.List(node, "$.evolves_to[*]") {
		toName, _ := api.String(child, "$.species.name")
		*edges = append(*edges, Edge{
			FromName: fromName,
			ToName:   toName,
			Details:  summarizeDetails(api.List(child, "$.evolution_details[*]")),
		})
		walkChain(child, edges)
	}
}

// summarizeDetails encodes a child-edge's trigger records as a single
// auditable string: "trigger=<name-or-None>" with optional
// ";min_level=<n>" and ";item=<name>" parts, records joined by "|".
// Zero records yield nil, never "".
func summarizeDetails(details []any) *string {
	var parts []string
	for _, d := range details {
		trigger, ok := api.String(d, "$.trigger.name")
		if !ok {
			trigger = "None"
		}
		s := "trigger=" + trigger
		if lvl, ok := api.Int(d, "$.min_level"); ok {
			s += fmt.Sprintf(";min_level=%d", lvl)
		}
		if item, ok := api.String(d, "$.item.name"); ok {
			s += ";item=" + item
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "|")
	return &joined
}

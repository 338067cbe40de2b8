// Package etl holds the transform half of the pipeline: normalizing detail
// documents into relational records, flattening evolution chains into
// directed edges, and the two-phase orchestrator that drives both.
package etl

import (
	"fmt"

	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/api"
	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/store"
)

// Normalize flattens one pokemon detail document into the primary record
// and its three categorical relation lists, in document order.
//
// id and name are required; their absence means the upstream document shape
// changed and surfaces as an error. Everything else defaults to absent.
func Normalize(doc any) (store.Pokemon, []store.TypeRel, []store.AbilityRel, []store.StatRel, error) {
	id, ok := api.Int(doc, "$.id")
	if !ok {
		return store.Pokemon{}, nil, nil, nil, fmt.Errorf("detail document has no id")
	}
	name, ok := api.String(doc, "$.name")
	if !ok || name == "" {
		return store.Pokemon{}, nil, nil, nil, fmt.Errorf("detail document %d has no name", id)
	}

	p := store.Pokemon{
		ID:             id,
		Name:           name,
		Height:         optInt(doc, "$.height"),
		Weight:         optInt(doc, "$.weight"),
		BaseExperience: optInt(doc, "$.base_experience"),
		SpeciesURL:     optString(doc, "$.species.url"),
	}

	var types []store.TypeRel
	for _, t := range api.List(doc, "$.types[*]") {
		tn, ok := api.String(t, "$.type.name")
		if !ok {
			continue
		}
		types = append(types, store.TypeRel{Name: tn, Slot: optInt(t, "$.slot")})
	}

	var abilities []store.AbilityRel
	for _, a := range api.List(doc, "$.abilities[*]") {
		an, ok := api.String(a, "$.ability.name")
		if !ok {
			continue
		}
		abilities = append(abilities, store.AbilityRel{
			Name:   an,
			Hidden: api.Bool(a, "$.is_hidden"),
			Slot:   optInt(a, "$.slot"),
		})
	}

	var stats []store.StatRel
	for _, st := range api.List(doc, "$.stats[*]") {
		sn, ok := api.String(st, "$.stat.name")
		if !ok {
			continue
		}
		stats = append(stats, store.StatRel{
			Name:   sn,
			Base:   optInt(st, "$.base_stat"),
			Effort: optInt(st, "$.effort"),
		})
	}

	return p, types, abilities, stats, nil
}

func optInt(doc any, path string) *int64 {
	if v, ok := api.Int(doc, path); ok {
		return &v
	}
	return nil
}

func optString(doc any, path string) *string {
	if v, ok := api.String(doc, path); ok {
		return &v
	}
	return nil
}

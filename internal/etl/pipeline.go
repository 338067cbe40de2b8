package etl

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/api"
	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/store"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	UpsertPokemon(p store.Pokemon) error
	ReplaceTypes(pokemonID int64, rels []store.TypeRel) error
	ReplaceAbilities(pokemonID int64, rels []store.AbilityRel) error
	ReplaceStats(pokemonID int64, rels []store.StatRel) error
	UpsertEvolutionEdge(fromID int64, toID *int64, details *string) error
	PokemonIDByName(name string) (int64, bool, error)
	SpeciesURL(pokemonID int64) (*string, error)
	BeginRun(fetchLimit int) (string, error)
	FinishRun(id string, processed, edges int) error
}

// Pipeline drives one two-phase ETL run: phase 1 loads entities and their
// relations, phase 2 walks evolution chains and resolves edges against the
// entity table phase 1 populated.
type Pipeline struct {
	client *api.Client
	store  Store
	out    io.Writer // progress stream
}

// Result carries the counters of one run.
type Result struct {
	Listed    int
	Processed int
	Failed    int
	Edges     int
}

// New creates a pipeline writing progress to out.
func New(client *api.Client, st Store, out io.Writer) *Pipeline {
	return &Pipeline{client: client, store: st, out: out}
}

// Run executes both phases sequentially. Per-item problems are logged and
// skipped; only a missing list or a store failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, limit, offset int) (Result, error) {
	runID, err := p.store.BeginRun(limit)
	if err != nil {
		return Result{}, err
	}

	refs, err := p.client.ListPokemon(ctx, limit, offset)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(p.out, "Fetched list of %d pokemon to process.\n", len(refs))

	res := Result{Listed: len(refs)}

	// Phase 1. The loaded list doubles as the phase 2 worklist; order is
	// the list endpoint's order.
	type loaded struct {
		name string
		id   int64
	}
	var done []loaded
	for i, ref := range refs {
		fmt.Fprintf(p.out, "[%d/%d] %s\n", i+1, len(refs), ref.Name)
		rec, err := p.loadEntity(ctx, ref)
		if err != nil {
			log.Printf("etl: %s: %v", ref.Name, err)
			res.Failed++
			continue
		}
		done = append(done, loaded{rec.Name, rec.ID})
		res.Processed++
	}

	// Phase 2. Resolution runs against the live store, so entities loaded
	// by earlier runs can be linked too.
	for i, l := range done {
		fmt.Fprintf(p.out, "[%d/%d] evolution chain for %s\n", i+1, len(done), l.name)
		n, err := p.loadChain(ctx, l.id)
		if err != nil {
			log.Printf("etl: chain for %s: %v", l.name, err)
			continue
		}
		res.Edges += n
	}

	if err := p.store.FinishRun(runID, res.Processed, res.Edges); err != nil {
		log.Printf("etl: finish run: %v", err)
	}
	return res, nil
}

// loadEntity fetches one detail document, normalizes it, and persists the
// record with all three relation sets.
func (p *Pipeline) loadEntity(ctx context.Context, ref api.NamedRef) (store.Pokemon, error) {
	doc, ok := p.client.FetchJSON(ctx, ref.URL)
	if !ok {
		return store.Pokemon{}, fmt.Errorf("detail unavailable")
	}
	rec, types, abilities, stats, err := Normalize(doc)
	if err != nil {
		return store.Pokemon{}, fmt.Errorf("normalize: %w", err)
	}
	if err := p.store.UpsertPokemon(rec); err != nil {
		return store.Pokemon{}, err
	}
	if err := p.store.ReplaceTypes(rec.ID, types); err != nil {
		return store.Pokemon{}, err
	}
	if err := p.store.ReplaceAbilities(rec.ID, abilities); err != nil {
		return store.Pokemon{}, err
	}
	if err := p.store.ReplaceStats(rec.ID, stats); err != nil {
		return store.Pokemon{}, err
	}
	return rec, nil
}

// loadChain follows pokemon → species → evolution chain for one stored
// entity and persists the resolved edges. Returns the number of edges
// written; absent documents skip the entity.
func (p *Pipeline) loadChain(ctx context.Context, pokemonID int64) (int, error) {
	speciesURL, err := p.store.SpeciesURL(pokemonID)
	if err != nil {
		return 0, err
	}
	if speciesURL == nil {
		return 0, nil
	}
	species, ok := p.client.FetchJSON(ctx, *speciesURL)
	if !ok {
		return 0, fmt.Errorf("species unavailable")
	}
	chainURL, ok := api.String(species, "$.evolution_chain.url")
	if !ok {
		return 0, nil
	}
	chainDoc, ok := p.client.FetchJSON(ctx, chainURL)
	if !ok {
		return 0, fmt.Errorf("chain unavailable")
	}

	written := 0
	for _, e := range FlattenChain(chainDoc) {
		stored, err := p.resolveEdge(e)
		if err != nil {
			return written, err
		}
		if stored {
			written++
		}
	}
	return written, nil
}

// resolveEdge applies the endpoint policy: an edge whose source name is not
// locally known is dropped without a trace, while an unknown target is
// recorded as NULL. The asymmetry is deliberate — an edge anchored on a
// never-loaded source has no referent, but a known source evolving into an
// unfetched target still carries information.
func (p *Pipeline) resolveEdge(e Edge) (bool, error) {
	fromID, ok, err := p.store.PokemonIDByName(e.FromName)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	var toID *int64
	id, ok, err := p.store.PokemonIDByName(e.ToName)
	if err != nil {
		return false, err
	}
	if ok {
		toID = &id
	}
	if err := p.store.UpsertEvolutionEdge(fromID, toID, e.Details); err != nil {
		return false, err
	}
	return true, nil
}

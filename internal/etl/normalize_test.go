package etl

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bulbasaurDetail = `{
	"id": 1,
	"name": "bulbasaur",
	"height": 7,
	"weight": 69,
	"base_experience": 64,
	"species": {"name": "bulbasaur", "url": "https://example.test/pokemon-species/1/"},
	"types": [
		{"slot": 1, "type": {"name": "grass"}},
		{"slot": 2, "type": {"name": "poison"}}
	],
	"abilities": [
		{"slot": 1, "is_hidden": false, "ability": {"name": "overgrow"}},
		{"slot": 3, "is_hidden": true, "ability": {"name": "chlorophyll"}}
	],
	"stats": [
		{"base_stat": 45, "effort": 0, "stat": {"name": "hp"}},
		{"base_stat": 49, "effort": 1, "stat": {"name": "attack"}}
	]
}`

func TestNormalize(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		doc, err := oj.ParseString(bulbasaurDetail)
		require.NoError(t, err)

		p, types, abilities, stats, err := Normalize(doc)
		require.NoError(t, err)

		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, "bulbasaur", p.Name)
		require.NotNil(t, p.Height)
		assert.Equal(t, int64(7), *p.Height)
		require.NotNil(t, p.Weight)
		assert.Equal(t, int64(69), *p.Weight)
		require.NotNil(t, p.BaseExperience)
		assert.Equal(t, int64(64), *p.BaseExperience)
		require.NotNil(t, p.SpeciesURL)
		assert.Equal(t, "https://example.test/pokemon-species/1/", *p.SpeciesURL)

		require.Len(t, types, 2)
		assert.Equal(t, "grass", types[0].Name)
		require.NotNil(t, types[0].Slot)
		assert.Equal(t, int64(1), *types[0].Slot)
		assert.Equal(t, "poison", types[1].Name)

		require.Len(t, abilities, 2)
		assert.Equal(t, "overgrow", abilities[0].Name)
		assert.False(t, abilities[0].Hidden)
		assert.Equal(t, "chlorophyll", abilities[1].Name)
		assert.True(t, abilities[1].Hidden)
		require.NotNil(t, abilities[1].Slot)
		assert.Equal(t, int64(3), *abilities[1].Slot)

		require.Len(t, stats, 2)
		assert.Equal(t, "hp", stats[0].Name)
		require.NotNil(t, stats[0].Base)
		assert.Equal(t, int64(45), *stats[0].Base)
		require.NotNil(t, stats[1].Effort)
		assert.Equal(t, int64(1), *stats[1].Effort)
	})

	t.Run("missing id is a contract violation", func(t *testing.T) {
		doc, err := oj.ParseString(`{"name": "missingno"}`)
		require.NoError(t, err)
		_, _, _, _, err = Normalize(doc)
		require.Error(t, err)
	})

	t.Run("missing name is a contract violation", func(t *testing.T) {
		doc, err := oj.ParseString(`{"id": 0}`)
		require.NoError(t, err)
		_, _, _, _, err = Normalize(doc)
		require.Error(t, err)
	})

	t.Run("optional fields default to absent", func(t *testing.T) {
		doc, err := oj.ParseString(`{"id": 132, "name": "ditto"}`)
		require.NoError(t, err)

		p, types, abilities, stats, err := Normalize(doc)
		require.NoError(t, err)
		assert.Nil(t, p.Height)
		assert.Nil(t, p.Weight)
		assert.Nil(t, p.BaseExperience)
		assert.Nil(t, p.SpeciesURL)
		assert.Empty(t, types)
		assert.Empty(t, abilities)
		assert.Empty(t, stats)
	})

	t.Run("hidden flag defaults to false", func(t *testing.T) {
		doc, err := oj.ParseString(`{
			"id": 25, "name": "pikachu",
			"abilities": [{"slot": 1, "ability": {"name": "static"}}]
		}`)
		require.NoError(t, err)

		_, _, abilities, _, err := Normalize(doc)
		require.NoError(t, err)
		require.Len(t, abilities, 1)
		assert.False(t, abilities[0].Hidden)
	})
}

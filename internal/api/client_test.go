package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return New(srv.URL, WithBackoff(time.Millisecond))
}

func TestFetchJSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 1, "name": "bulbasaur"}`)
		}))
		defer srv.Close()

		doc, ok := testClient(srv).FetchJSON(context.Background(), srv.URL+"/pokemon/1")
		require.True(t, ok)

		name, ok := String(doc, "$.name")
		require.True(t, ok)
		assert.Equal(t, "bulbasaur", name)

		id, ok := Int(doc, "$.id")
		require.True(t, ok)
		assert.Equal(t, int64(1), id)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"ok": true}`)
		}))
		defer srv.Close()

		doc, ok := testClient(srv).FetchJSON(context.Background(), srv.URL)
		require.True(t, ok)
		assert.True(t, Bool(doc, "$.ok"))
		assert.Equal(t, 3, calls)
	})

	t.Run("absent after exhausting retries", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, ok := testClient(srv).FetchJSON(context.Background(), srv.URL)
		assert.False(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("malformed body is a failed attempt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{not json`)
		}))
		defer srv.Close()

		_, ok := testClient(srv).FetchJSON(context.Background(), srv.URL)
		assert.False(t, ok)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, ok := New(srv.URL, WithBackoff(time.Minute)).FetchJSON(ctx, srv.URL)
		assert.False(t, ok)
	})
}

func TestListPokemon(t *testing.T) {
	t.Run("parses results in order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/pokemon", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"results": [
				{"name": "bulbasaur", "url": "https://example.test/pokemon/1/"},
				{"name": "ivysaur", "url": "https://example.test/pokemon/2/"}
			]}`)
		}))
		defer srv.Close()

		refs, err := testClient(srv).ListPokemon(context.Background(), 2, 0)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, NamedRef{Name: "bulbasaur", URL: "https://example.test/pokemon/1/"}, refs[0])
		assert.Equal(t, NamedRef{Name: "ivysaur", URL: "https://example.test/pokemon/2/"}, refs[1])
	})

	t.Run("unavailable list is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := testClient(srv).ListPokemon(context.Background(), 20, 0)
		require.Error(t, err)
	})

	t.Run("entries without name or url are skipped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results": [
				{"name": "bulbasaur"},
				{"url": "https://example.test/pokemon/2/"},
				{"name": "venusaur", "url": "https://example.test/pokemon/3/"}
			]}`)
		}))
		defer srv.Close()

		refs, err := testClient(srv).ListPokemon(context.Background(), 3, 0)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "venusaur", refs[0].Name)
	})
}

package apiroutes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrySortedCopy(t *testing.T) {
	ClearForTesting()
	t.Cleanup(ClearForTesting)

	Register("/api/films", "GET", "List films")
	RegisterFor("catalog", "/api/episodes/:id", "GET", "Get an episode")
	Register("/api/films", "DELETE", "never mind")

	routes := Get()
	assert.Len(t, routes, 3)
	assert.Equal(t, "/api/episodes/:id", routes[0].Path)
	assert.Equal(t, "catalog", routes[0].Module)
	assert.Equal(t, "DELETE", routes[1].Method)

	routes[0].Path = "mutated"
	assert.Equal(t, "/api/episodes/:id", Get()[0].Path)
}

func TestRegisterReplacesDuplicates(t *testing.T) {
	ClearForTesting()
	t.Cleanup(ClearForTesting)

	RegisterFor("catalog", "/api/films", "GET", "old")
	RegisterFor("catalog", "/api/films", "GET", "new")

	routes := Get()
	assert.Len(t, routes, 1)
	assert.Equal(t, "new", routes[0].Description)
}

package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FirstRegisteredWinsOnConflict(t *testing.T) {
	first := &fakeTool{name: "search", result: Ok("first")}
	second := &fakeTool{name: "search", result: Ok("second")}

	reg := NewRegistry(nil)
	reg.AddSource(&LocalSource{SourceName: "a", Tools: []Tool{first}})
	reg.AddSource(&LocalSource{SourceName: "b", Tools: []Tool{second}})
	require.NoError(t, reg.DiscoverAll(context.Background()))

	got, ok := reg.Get("search")
	require.True(t, ok)

	res, err := got.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Data)
}

func TestRegistry_ListReturnsAllDiscovered(t *testing.T) {
	reg := NewRegistry(nil)
	reg.AddSource(&LocalSource{SourceName: "a", Tools: []Tool{
		&fakeTool{name: "one"},
		&fakeTool{name: "two"},
	}})
	require.NoError(t, reg.DiscoverAll(context.Background()))

	assert.Len(t, reg.List(), 2)
}

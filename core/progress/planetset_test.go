package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanetSet(t *testing.T) {
	s := NewPlanetSet("mars", "earth")
	assert.True(t, s.Add("venus"))
	assert.False(t, s.Add("mars"))
	assert.True(t, s.Has("earth"))
	assert.False(t, s.Has("pluto"))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"earth", "mars", "venus"}, s.Sorted())
}

func TestPlanetSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewPlanetSet("venus", "earth", "mars"))
	require.NoError(t, err)
	assert.JSONEq(t, `["earth", "mars", "venus"]`, string(data))

	data, err = json.Marshal(NewPlanetSet())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	var s PlanetSet
	require.NoError(t, json.Unmarshal([]byte(`["mars", "earth", "mars"]`), &s))
	assert.Equal(t, NewPlanetSet("earth", "mars"), s)
}

func TestProgress_View(t *testing.T) {
	v := Progress{UserID: "u1", Points: 15}.View()
	assert.NotNil(t, v.VisitedPlanets)
	assert.Zero(t, v.VisitedCount)

	v = Progress{UserID: "u1", Visited: NewPlanetSet("mars", "earth"), Points: 10}.View()
	assert.Equal(t, 2, v.VisitedCount)
	assert.Equal(t, 10, v.Points)
}

package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gh-rankings/internal/model"
)

func TestFindByLocation(t *testing.T) {
	r := New()

	tests := []struct {
		location string
		wantName string // "" means no match
	}{
		{location: "San Francisco, United States", wantName: "United States"},
		{location: "berlin, GERMANY", wantName: "Germany"},
		{location: "Lagos, Nigeria", wantName: "Nigeria"},
		{location: "Niamey, Niger", wantName: "Niger"},
		{location: "Mogadishu, Somalia", wantName: "Somalia"},
		{location: "Bucharest, Romania", wantName: "Romania"},
		{location: "Muscat, Oman", wantName: "Oman"},
		{location: "Juba, South Sudan", wantName: "South Sudan"},
		{location: "Port Moresby, Papua New Guinea", wantName: "Papua New Guinea"},
		{location: "Pyongyang, North Korea", wantName: "North Korea"},
		{location: "Seoul, Korea", wantName: "South Korea"},
		{location: "Kyiv, Ukraine", wantName: "Ukraine"},
		{location: "London, UK", wantName: "United Kingdom"},
		{location: "Austin, TX, USA", wantName: "United States"},
		{location: "U.S.", wantName: "United States"},
		{location: "de", wantName: "Germany"},
		{location: "Based in Berlin", wantName: ""},
		{location: "Berlin, DE", wantName: "Germany"},
		{location: "Munich, Bavaria, DE", wantName: "Germany"},
		{location: "Toronto, CA", wantName: "Canada"},
		{location: "San Francisco, CA", wantName: "Canada"},
		{location: "Amsterdam / NL", wantName: "Netherlands"},
		{location: "Come work with us", wantName: ""},
		{location: "Paris, FR and Berlin, Germany", wantName: "Germany"},
		{location: "Earth", wantName: ""},
		{location: "   ", wantName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, ok := r.FindByLocation(tt.location)
			if tt.wantName == "" {
				assert.False(t, ok, "expected no match, got %q", got.Name)
				return
			}
			require.True(t, ok, "expected a match for %q", tt.location)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestFindByLocation_FirstMatchWins(t *testing.T) {
	r := NewWithCountries([]model.Country{
		{Code: "AA", Name: "Alpha", Region: "Test"},
		{Code: "BB", Name: "Beta", Region: "Test"},
	})

	got, ok := r.FindByLocation("Beta City, Alpha")
	require.True(t, ok)
	assert.Equal(t, "AA", got.Code, "reference order, not position in the text, breaks ties")
}

func TestFindByLocation_NamesBeatCodes(t *testing.T) {
	r := NewWithCountries([]model.Country{
		{Code: "AA", Name: "Alpha", Region: "Test"},
		{Code: "BB", Name: "Beta", Region: "Test"},
	})

	got, ok := r.FindByLocation("AA, Beta")
	require.True(t, ok)
	assert.Equal(t, "BB", got.Code, "a spelled-out name wins over an earlier country's code")

	got, ok = r.FindByLocation("Somewhere, BB")
	require.True(t, ok)
	assert.Equal(t, "BB", got.Code)
}

func TestLookup(t *testing.T) {
	r := New()

	byCode, ok := r.Lookup("ng")
	require.True(t, ok)
	assert.Equal(t, "Nigeria", byCode.Name)

	byName, ok := r.Lookup("  united kingdom ")
	require.True(t, ok)
	assert.Equal(t, "GB", byName.Code)

	_, ok = r.Lookup("Atlantis")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	r := New()

	all := r.All()
	require.NotEmpty(t, all)
	all[0].Name = "Mutated"

	assert.NotEqual(t, "Mutated", r.All()[0].Name)
}

func TestReferenceCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range reference {
		assert.False(t, seen[c.Code], "duplicate code %s", c.Code)
		seen[c.Code] = true
		assert.Len(t, c.Code, 2)
		assert.NotEmpty(t, c.Region)
	}
}

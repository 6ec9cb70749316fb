package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	v := Default()

	assert.ElementsMatch(t, []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}, v.Values(DimBorough))
	years := v.Values(DimYear)
	require.Len(t, years, MaxYear-MinYear+1)
	assert.Equal(t, "2012", years[0])
	assert.Equal(t, "2025", years[len(years)-1])
	assert.Equal(t, []string{PersonPedestrian, PersonCyclist, PersonOccupant}, v.Values(DimPersonType))
}

func TestCanonical(t *testing.T) {
	v := Default()

	t.Run("case insensitive value", func(t *testing.T) {
		c, ok := v.Canonical(DimBorough, "BROOKLYN")
		require.True(t, ok)
		assert.Equal(t, "Brooklyn", c)
	})

	t.Run("synonym", func(t *testing.T) {
		c, ok := v.Canonical(DimInjuryType, "fatal")
		require.True(t, ok)
		assert.Equal(t, InjuryKilled, c)
	})

	t.Run("unknown value", func(t *testing.T) {
		_, ok := v.Canonical(DimBorough, "Hoboken")
		assert.False(t, ok)
	})

	t.Run("empty value", func(t *testing.T) {
		_, ok := v.Canonical(DimYear, "  ")
		assert.False(t, ok)
	})
}

func TestMergeKeepsReceiverAndCanonicalSpelling(t *testing.T) {
	base := Default()
	merged := base.Merge(map[string][]string{
		DimBorough:     {"BROOKLYN", "Unknown"},
		DimVehicleType: {"Garbage or Refuse"},
	})

	// Existing spelling wins
	c, ok := merged.Canonical(DimBorough, "brooklyn")
	require.True(t, ok)
	assert.Equal(t, "Brooklyn", c)

	_, ok = merged.Canonical(DimVehicleType, "garbage or refuse")
	assert.True(t, ok)

	// Receiver untouched
	_, ok = base.Canonical(DimVehicleType, "Garbage or Refuse")
	assert.False(t, ok)

	// Synonyms survive the merge
	c, ok = merged.Canonical(DimPersonType, "bike")
	require.True(t, ok)
	assert.Equal(t, PersonCyclist, c)
}

func TestMergeSkipsWildcardAndBlank(t *testing.T) {
	merged := Default().Merge(map[string][]string{DimBorough: {"All", "", "  "}})
	assert.Len(t, merged.Values(DimBorough), 5)
}

func TestTermsIncludesSynonyms(t *testing.T) {
	terms := Default().Terms(DimPersonType)
	assert.Equal(t, PersonCyclist, terms["bicycle"])
	assert.Equal(t, PersonPedestrian, terms["pedestrian"])
}

func TestTermsAgreeWithCanonical(t *testing.T) {
	// "bicyclist" is both an observed value and a person type synonym here
	merged := Default().Merge(map[string][]string{
		DimPersonType: {"Bicyclist", "Other Motorized"},
		DimInjuryType: {"Fatal"},
	})

	for _, dim := range Dimensions {
		for term, want := range merged.Terms(dim) {
			got, ok := merged.Canonical(dim, term)
			require.True(t, ok, "%s/%s", dim, term)
			assert.Equal(t, want, got, "%s/%s", dim, term)
		}
	}
}

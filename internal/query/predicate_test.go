package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/testutil"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

func collisionIDs(crashes []*models.CrashRecord) []int64 {
	ids := make([]int64, 0, len(crashes))
	for _, c := range crashes {
		ids = append(ids, c.CollisionID)
	}
	return ids
}

func TestBuildPredicateCanonicalizes(t *testing.T) {
	vocab := vocabulary.Default()

	p := BuildPredicate(models.FilterSpec{
		Borough:    "BROOKLYN",
		Year:       "2022",
		PersonType: "bike",
		InjuryType: "All",
	}, vocab)

	assert.Equal(t, models.FilterSpec{Borough: "Brooklyn", Year: "2022", PersonType: "Cyclist"}, p.Spec())
	assert.True(t, p.HasPersonConstraints())
}

func TestBuildPredicateUnrecognizedIsWildcard(t *testing.T) {
	p := BuildPredicate(models.FilterSpec{
		Borough:     "Atlantis",
		Year:        "19x9",
		VehicleType: "Hovercraft",
	}, vocabulary.Default())

	assert.Equal(t, models.FilterSpec{}, p.Spec())
	assert.False(t, p.HasPersonConstraints())
}

func TestSelect(t *testing.T) {
	ds := testutil.SampleDataset()
	vocab := vocabulary.Default()

	t.Run("wildcard selects everything", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{}, vocab).Select(ds)
		assert.Len(t, crashes, 7)
		assert.Len(t, persons, 9)
	})

	t.Run("crash-level constraints", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{Borough: "Brooklyn", Year: "2022"}, vocab).Select(ds)
		assert.Equal(t, []int64{1, 2}, collisionIDs(crashes))
		assert.Len(t, persons, 4)
	})

	t.Run("person-level constraint joins on collision", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{PersonType: "Pedestrian"}, vocab).Select(ds)
		assert.Equal(t, []int64{1, 3}, collisionIDs(crashes))
		require.Len(t, persons, 2)
		assert.Equal(t, "p2", persons[0].PersonID)
		assert.Equal(t, "p5", persons[1].PersonID)
	})

	t.Run("crash and person constraints combined", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{
			Borough:    "Brooklyn",
			Year:       "2022",
			PersonType: "Pedestrian",
		}, vocab).Select(ds)
		assert.Equal(t, []int64{1}, collisionIDs(crashes))
		assert.Len(t, persons, 1)
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{Borough: "Queens", InjuryType: "Injured"}, vocab).Select(ds)
		assert.Empty(t, crashes)
		assert.Empty(t, persons)
	})

	t.Run("nil dataset", func(t *testing.T) {
		crashes, persons := BuildPredicate(models.FilterSpec{}, vocab).Select(nil)
		assert.Nil(t, crashes)
		assert.Nil(t, persons)
	})
}

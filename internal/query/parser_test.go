package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

func TestParse(t *testing.T) {
	p := NewParser(vocabulary.Default())

	tests := []struct {
		name  string
		query string
		want  models.FilterSpec
	}{
		{
			name:  "borough year person type",
			query: "Brooklyn 2022 pedestrian crashes",
			want:  models.FilterSpec{Borough: "Brooklyn", Year: "2022", PersonType: "Pedestrian"},
		},
		{
			name:  "empty",
			query: "",
			want:  models.FilterSpec{},
		},
		{
			name:  "whitespace only",
			query: "   \t\n ",
			want:  models.FilterSpec{},
		},
		{
			name:  "nothing recognized",
			query: "what happened yesterday?",
			want:  models.FilterSpec{},
		},
		{
			name:  "cyclist killed synonyms",
			query: "Manhattan cyclist killed",
			want:  models.FilterSpec{Borough: "Manhattan", PersonType: "Cyclist", InjuryType: "Killed"},
		},
		{
			name:  "first borough in query order wins",
			query: "queens or brooklyn?",
			want:  models.FilterSpec{Borough: "Queens"},
		},
		{
			name:  "first injury in query order wins",
			query: "injured and killed",
			want:  models.FilterSpec{InjuryType: "Injured"},
		},
		{
			name:  "two-word borough",
			query: "crashes on STATEN ISLAND in 2019",
			want:  models.FilterSpec{Borough: "Staten Island", Year: "2019"},
		},
		{
			name:  "year outside supported range is ignored",
			query: "bronx 2011 2030",
			want:  models.FilterSpec{Borough: "Bronx"},
		},
		{
			name:  "first year wins",
			query: "2015 vs 2020",
			want:  models.FilterSpec{Year: "2015"},
		},
		{
			name:  "plural tokens",
			query: "pedestrians injuries",
			want:  models.FilterSpec{PersonType: "Pedestrian", InjuryType: "Injured"},
		},
		{
			name:  "punctuation separated",
			query: "fatal,taxi;queens",
			want:  models.FilterSpec{Borough: "Queens", VehicleType: "Taxi", InjuryType: "Killed"},
		},
		{
			name:  "contributing factor phrase",
			query: "unsafe speed in the bronx",
			want:  models.FilterSpec{Borough: "Bronx", ContributingFactor: "Unsafe Speed"},
		},
		{
			name:  "longer vehicle phrase preferred at same position",
			query: "e-bike crashes",
			want:  models.FilterSpec{VehicleType: "E-Bike", PersonType: "Cyclist"},
		},
		{
			name:  "substring inside a word does not match",
			query: "business district",
			want:  models.FilterSpec{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.query))
		})
	}
}

func TestParseUsesMergedVocabulary(t *testing.T) {
	vocab := vocabulary.Default().Merge(map[string][]string{
		vocabulary.DimVehicleType: {"Garbage or Refuse"},
	})
	p := NewParser(vocab)

	got := p.Parse("garbage or refuse trucks in queens")
	assert.Equal(t, "Garbage or Refuse", got.VehicleType)
	assert.Equal(t, "Queens", got.Borough)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"station", "wagon", "sport", "utility", "vehicle"}, Tokenize("Station Wagon/Sport Utility Vehicle"))
	assert.Empty(t, Tokenize(" ,.;"))
}

package query

import (
	"strconv"
	"strings"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

// Predicate is the selection built from a FilterSpec. Zero-valued fields are wildcards.
// Borough, year, vehicle type and contributing factor test crash records;
// person type and injury type test person records joined on collision ID.
type Predicate struct {
	borough     string
	year        int
	vehicleType string
	factor      string
	personType  string
	injuryType  string
}

// BuildPredicate canonicalizes every constraint against the vocabulary.
// Values the vocabulary does not recognize are treated as wildcards.
func BuildPredicate(spec models.FilterSpec, vocab *vocabulary.Vocabulary) Predicate {
	var p Predicate

	p.borough = resolve(vocab, vocabulary.DimBorough, spec.Borough)
	p.vehicleType = resolve(vocab, vocabulary.DimVehicleType, spec.VehicleType)
	p.factor = resolve(vocab, vocabulary.DimContributingFactor, spec.ContributingFactor)
	p.personType = resolve(vocab, vocabulary.DimPersonType, spec.PersonType)
	p.injuryType = resolve(vocab, vocabulary.DimInjuryType, spec.InjuryType)

	if y := resolve(vocab, vocabulary.DimYear, spec.Year); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			p.year = n
		}
	}

	return p
}

func resolve(vocab *vocabulary.Vocabulary, dim, val string) string {
	if models.IsWildcard(val) {
		return ""
	}
	c, ok := vocab.Canonical(dim, val)
	if !ok {
		return ""
	}
	return c
}

// Spec returns the normalized FilterSpec this predicate enforces
func (p Predicate) Spec() models.FilterSpec {
	spec := models.FilterSpec{
		Borough:            p.borough,
		VehicleType:        p.vehicleType,
		ContributingFactor: p.factor,
		PersonType:         p.personType,
		InjuryType:         p.injuryType,
	}
	if p.year != 0 {
		spec.Year = strconv.Itoa(p.year)
	}
	return spec
}

// HasPersonConstraints reports whether membership depends on joined person records
func (p Predicate) HasPersonConstraints() bool {
	return p.personType != "" || p.injuryType != ""
}

// MatchCrash applies the crash-level constraints
func (p Predicate) MatchCrash(c *models.CrashRecord) bool {
	if p.borough != "" && !strings.EqualFold(c.Borough, p.borough) {
		return false
	}
	if p.year != 0 && c.Year != p.year {
		return false
	}
	if p.vehicleType != "" && !strings.EqualFold(c.VehicleType, p.vehicleType) {
		return false
	}
	if p.factor != "" && !strings.EqualFold(c.ContributingFactor, p.factor) {
		return false
	}
	return true
}

// MatchPerson applies the person-level constraints
func (p Predicate) MatchPerson(pr *models.PersonRecord) bool {
	if p.personType != "" && !strings.EqualFold(pr.PersonType, p.personType) {
		return false
	}
	if p.injuryType != "" && !strings.EqualFold(pr.InjuryStatus, p.injuryType) {
		return false
	}
	return true
}

// Select scans the dataset once and returns the passing crashes and their matching persons.
// A crash passes when it satisfies the crash-level constraints and, if person-level
// constraints exist, at least one of its persons satisfies them. The dataset is not modified.
func (p Predicate) Select(ds *models.Dataset) ([]*models.CrashRecord, []*models.PersonRecord) {
	if ds == nil {
		return nil, nil
	}

	var crashes []*models.CrashRecord
	var persons []*models.PersonRecord

	for i := range ds.Crashes {
		c := &ds.Crashes[i]
		if !p.MatchCrash(c) {
			continue
		}

		matched := 0
		for _, idx := range ds.PersonsByCrash[c.CollisionID] {
			pr := &ds.Persons[idx]
			if p.MatchPerson(pr) {
				persons = append(persons, pr)
				matched++
			}
		}

		if p.HasPersonConstraints() && matched == 0 {
			continue
		}
		crashes = append(crashes, c)
	}

	return crashes, persons
}

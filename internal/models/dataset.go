package models

import "sort"

// Derive fills the derived temporal fields that are still unknown from Timestamp.
// Hour and Weekday use -1 for unknown, Year 0, Month and Season "".
func (c *CrashRecord) Derive() {
	if c.Hour > 23 {
		c.Hour = -1
	}
	if c.Weekday > 6 {
		c.Weekday = -1
	}
	if c.Timestamp.IsZero() {
		return
	}

	ts := c.Timestamp
	if c.Hour < 0 {
		c.Hour = ts.Hour()
	}
	if c.Weekday < 0 {
		c.Weekday = WeekdayIndex(ts.Weekday())
	}
	if c.Year == 0 {
		c.Year = ts.Year()
	}
	if c.Month == "" {
		c.Month = ts.Format("2006-01")
	}
	if c.Season == "" {
		c.Season = SeasonForMonth(ts.Month())
	}
}

// NewDataset assembles a read-only snapshot from loaded rows.
// Crashes are de-duplicated by collision ID (first wins) and sorted; crashes
// without any person record and persons without a crash are dropped, so every
// crash in the snapshot has at least one person.
func NewDataset(crashes []CrashRecord, persons []PersonRecord) *Dataset {
	byID := make(map[int64]int, len(crashes))
	kept := make([]CrashRecord, 0, len(crashes))
	for _, c := range crashes {
		if _, dup := byID[c.CollisionID]; dup {
			continue
		}
		c.Derive()
		byID[c.CollisionID] = len(kept)
		kept = append(kept, c)
	}

	hasPerson := make(map[int64]bool, len(kept))
	keptPersons := make([]PersonRecord, 0, len(persons))
	for _, p := range persons {
		if _, ok := byID[p.CollisionID]; !ok {
			continue
		}
		hasPerson[p.CollisionID] = true
		keptPersons = append(keptPersons, p)
	}

	finalCrashes := kept[:0]
	for _, c := range kept {
		if hasPerson[c.CollisionID] {
			finalCrashes = append(finalCrashes, c)
		}
	}
	sort.SliceStable(finalCrashes, func(i, j int) bool {
		return finalCrashes[i].CollisionID < finalCrashes[j].CollisionID
	})

	index := make(map[int64][]int, len(finalCrashes))
	for i, p := range keptPersons {
		index[p.CollisionID] = append(index[p.CollisionID], i)
	}

	return &Dataset{
		Crashes:        finalCrashes,
		Persons:        keptPersons,
		PersonsByCrash: index,
	}
}

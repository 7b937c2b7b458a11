/*
Package rates resolves the legally required NMW/NLW hourly rate for a worker.

PURPOSE:
  Holds the versioned rate table (non-overlapping effective-date periods,
  each with age-band rates, one apprentice rate, and the accommodation daily
  offset limit) and the resolution logic that picks the right rate for an
  age/date/apprentice combination.

TABLE SHAPE:
  A Table is an ordered list of RateRecords. Exactly one record applies to a
  given date; records are scanned by effectiveFrom descending and the first
  containing record wins, so a newer record shadows an older one even if the
  data is (incorrectly) overlapping.

RESOLUTION ORDER (apprentices):
  1. age < 19                                      -> apprentice rate
  2. age >= 19, apprenticeship started < 1y ago    -> apprentice rate
  3. otherwise                                     -> age-band scan

SEE ALSO:
  - resolver.go: The resolution entry point and its validation rules
  - source.go: Loading, versioning, and snapshot caching
*/
package rates

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// RATE TABLE - Non-overlapping effective-date periods
// =============================================================================

// AgeBand is one row of a record's age-band ladder.
type AgeBand struct {
	MinAge      int             `json:"min_age"`
	MaxAge      int             `json:"max_age"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Description string          `json:"description,omitempty"`
}

// Contains reports whether the band's inclusive [MinAge, MaxAge] range
// covers the given age.
func (b AgeBand) Contains(age int) bool { return age >= b.MinAge && age <= b.MaxAge }

// RateRecord is one time-bounded set of statutory rates. EffectiveTo is nil
// for the currently open-ended record.
type RateRecord struct {
	EffectiveFrom           nmw.Date        `json:"effective_from"`
	EffectiveTo             *nmw.Date       `json:"effective_to,omitempty"`
	Bands                   []AgeBand       `json:"age_bands"`
	ApprenticeRate          decimal.Decimal `json:"apprentice_rate"`
	AccommodationDailyLimit decimal.Decimal `json:"accommodation_daily_limit"`
}

// Contains reports whether the record's [EffectiveFrom, EffectiveTo] range
// covers the given date. A nil EffectiveTo is open-ended.
func (r RateRecord) Contains(d nmw.Date) bool {
	if d.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo == nil {
		return true
	}
	return d.BeforeOrEqual(*r.EffectiveTo)
}

// Table is the full ordered rate table. Records are kept sorted by
// EffectiveFrom descending so lookup takes the most recent match first.
type Table struct {
	Records []RateRecord `json:"rate_periods"`
}

// Sort orders records by EffectiveFrom descending. Load paths call this so
// lookups never depend on source ordering.
func (t *Table) Sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		return t.Records[i].EffectiveFrom.After(t.Records[j].EffectiveFrom)
	})
}

// RecordFor returns the record applying to the given date: the first match
// scanning by effectiveFrom descending.
func (t *Table) RecordFor(d nmw.Date) (RateRecord, bool) {
	for _, r := range t.Records {
		if r.Contains(d) {
			return r, true
		}
	}
	return RateRecord{}, false
}

// Validate checks table integrity at load time: at least one record, sane
// bands, positive rates, and no overlapping effective ranges. Overlap is a
// data error in the source resource, even though RecordFor would still
// deterministically pick the newer record.
func (t *Table) Validate() error {
	if len(t.Records) == 0 {
		return fmt.Errorf("rate table holds no records")
	}
	for i, r := range t.Records {
		if r.EffectiveFrom.IsZero() {
			return fmt.Errorf("record %d: missing effective_from", i)
		}
		if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
			return fmt.Errorf("record %d: effective_to precedes effective_from", i)
		}
		if len(r.Bands) == 0 {
			return fmt.Errorf("record %d: no age bands", i)
		}
		if r.ApprenticeRate.Sign() <= 0 {
			return fmt.Errorf("record %d: non-positive apprentice rate", i)
		}
		for j, b := range r.Bands {
			if b.MinAge > b.MaxAge {
				return fmt.Errorf("record %d band %d: min age %d above max age %d", i, j, b.MinAge, b.MaxAge)
			}
			if b.HourlyRate.Sign() <= 0 {
				return fmt.Errorf("record %d band %d: non-positive hourly rate", i, j)
			}
		}
	}
	for i := range t.Records {
		for j := i + 1; j < len(t.Records); j++ {
			if recordsOverlap(t.Records[i], t.Records[j]) {
				return fmt.Errorf("records %d and %d have overlapping effective ranges", i, j)
			}
		}
	}
	return nil
}

func recordsOverlap(a, b RateRecord) bool {
	// Open-ended records extend to infinity; two open-ended records always overlap.
	if a.EffectiveTo == nil && b.EffectiveTo == nil {
		return true
	}
	if a.EffectiveTo == nil {
		return b.EffectiveTo.AfterOrEqual(a.EffectiveFrom)
	}
	if b.EffectiveTo == nil {
		return a.EffectiveTo.AfterOrEqual(b.EffectiveFrom)
	}
	return a.EffectiveFrom.BeforeOrEqual(*b.EffectiveTo) && b.EffectiveFrom.BeforeOrEqual(*a.EffectiveTo)
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Source Types
// -----------------------------------------------------------------------------

// Sex is the recorded sex of a decedent.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// String returns the upstream code for the sex ("m", "f") or "unknown".
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "m"
	case SexFemale:
		return "f"
	default:
		return "unknown"
	}
}

// ParseSex maps an upstream sex code to Sex. Anything unrecognised is SexUnknown.
func ParseSex(code string) Sex {
	switch code {
	case "m", "M", "male":
		return SexMale
	case "f", "F", "female":
		return SexFemale
	default:
		return SexUnknown
	}
}

// CasualtyRecord is one decedent from the killed dataset.
type CasualtyRecord struct {
	Age *int // Age in years, nil when unknown
	Sex Sex  // SexUnknown when not reported
}

// HasAge reports whether the record carries a known age.
func (r CasualtyRecord) HasAge() bool {
	return r.Age != nil
}

// DailyCasualtyReport is one calendar day from the daily casualties dataset.
type DailyCasualtyReport struct {
	ReportDate        time.Time // UTC midnight, unique per report
	KilledCumulative  int64     // Running total of deaths
	InjuredCumulative *int64    // Running total of injured, nil when not reported
}

// -----------------------------------------------------------------------------
// Derived Types
// -----------------------------------------------------------------------------

// DailyPoint is one entry of a derived daily series.
type DailyPoint struct {
	Date              time.Time `json:"date"`
	KilledCumulative  int64     `json:"killed_cumulative"`
	IncrementalDeaths int64     `json:"incremental_deaths"` // may be negative after upstream corrections
	MovingAverage     float64   `json:"moving_average"`
}

// DerivedDailySeries is aligned 1:1 with the reports it was computed from.
type DerivedDailySeries []DailyPoint

// Category is a demographic bucket. Every record maps to exactly one.
type Category string

const (
	CategoryChildren Category = "Children"
	CategoryWomen    Category = "Women"
	CategorySeniors  Category = "Seniors"
	CategoryOthers   Category = "Others"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryChildren, CategoryWomen, CategorySeniors, CategoryOthers}

// CategoryCounts maps each category to the number of records in it.
type CategoryCounts map[Category]int

// Total returns the sum of all buckets.
func (c CategoryCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// SummaryMetrics are the headline figures, always computed over the full data set.
type SummaryMetrics struct {
	TotalDeaths       int64 `json:"total_deaths"`
	CumulativeInjured int64 `json:"cumulative_injured"`
	ChildrenCount     int   `json:"children_count"`
	MenCount          int   `json:"men_count"`
	WomenCount        int   `json:"women_count"`
}

// TableRow is one row of the daily deaths table.
type TableRow struct {
	Date             time.Time `json:"date"`
	Deaths           int64     `json:"deaths"`
	CumulativeDeaths int64     `json:"cumulative_deaths"`
}

// AgeHistogram holds per-year death counts for ages 0 through MaxHistogramAge.
type AgeHistogram struct {
	Bins     []int `json:"bins"`     // Bins[age] = deaths at that age
	Overflow int   `json:"overflow"` // ages above MaxHistogramAge
}

// MaxHistogramAge is the highest age with its own histogram bin.
const MaxHistogramAge = 110

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Snapshot is one fetched pair of datasets, treated as immutable once built.
type Snapshot struct {
	ID        uuid.UUID
	FetchedAt time.Time
	Records   []CasualtyRecord
	Reports   []DailyCasualtyReport // sorted ascending by ReportDate
	Skipped   int                   // malformed elements dropped while decoding
}

// NewSnapshot stamps a fresh ID and fetch time on the given data.
func NewSnapshot(records []CasualtyRecord, reports []DailyCasualtyReport, skipped int) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		FetchedAt: time.Now().UTC(),
		Records:   records,
		Reports:   reports,
		Skipped:   skipped,
	}
}

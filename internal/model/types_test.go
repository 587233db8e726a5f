package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseSex(t *testing.T) {
	tests := []struct {
		code string
		want Sex
	}{
		{"m", SexMale},
		{"M", SexMale},
		{"male", SexMale},
		{"f", SexFemale},
		{"F", SexFemale},
		{"female", SexFemale},
		{"", SexUnknown},
		{"x", SexUnknown},
	}

	for _, tt := range tests {
		if got := ParseSex(tt.code); got != tt.want {
			t.Errorf("ParseSex(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSexString(t *testing.T) {
	if SexMale.String() != "m" {
		t.Errorf("SexMale.String() = %q, want %q", SexMale.String(), "m")
	}
	if SexFemale.String() != "f" {
		t.Errorf("SexFemale.String() = %q, want %q", SexFemale.String(), "f")
	}
	if SexUnknown.String() != "unknown" {
		t.Errorf("SexUnknown.String() = %q, want %q", SexUnknown.String(), "unknown")
	}
}

func TestCasualtyRecord_HasAge(t *testing.T) {
	age := 0
	if !(CasualtyRecord{Age: &age}).HasAge() {
		t.Error("HasAge() = false for age 0, want true")
	}
	if (CasualtyRecord{}).HasAge() {
		t.Error("HasAge() = true for nil age, want false")
	}
}

func TestCategoryCounts_Total(t *testing.T) {
	counts := CategoryCounts{
		CategoryChildren: 3,
		CategoryWomen:    2,
		CategorySeniors:  1,
		CategoryOthers:   4,
	}
	if got := counts.Total(); got != 10 {
		t.Errorf("Total() = %d, want 10", got)
	}
	if got := (CategoryCounts{}).Total(); got != 0 {
		t.Errorf("empty Total() = %d, want 0", got)
	}
}

func TestNewSnapshot(t *testing.T) {
	records := []CasualtyRecord{{Sex: SexFemale}}
	reports := []DailyCasualtyReport{{KilledCumulative: 10}}

	s := NewSnapshot(records, reports, 2)

	if s.ID == uuid.Nil {
		t.Error("ID should not be nil")
	}
	if s.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}
	if s.FetchedAt.Location().String() != "UTC" {
		t.Errorf("FetchedAt location = %s, want UTC", s.FetchedAt.Location())
	}
	if len(s.Records) != 1 || len(s.Reports) != 1 {
		t.Errorf("Records/Reports = %d/%d, want 1/1", len(s.Records), len(s.Reports))
	}
	if s.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", s.Skipped)
	}

	other := NewSnapshot(nil, nil, 0)
	if other.ID == s.ID {
		t.Error("snapshots should get distinct IDs")
	}
}

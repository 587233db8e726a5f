package pipeline

import (
	"testing"

	"github.com/rickgao/casualty-monitor/internal/model"
)

func injured(v int64) *int64 { return &v }

func TestSummarize(t *testing.T) {
	records := []model.CasualtyRecord{
		rec(ageOf(5), model.SexMale),
		rec(ageOf(12), model.SexFemale),
		rec(nil, model.SexFemale),
		rec(ageOf(65), model.SexMale),
		rec(ageOf(40), model.SexUnknown),
	}
	reports := []model.DailyCasualtyReport{
		{ReportDate: day("2024-01-01"), KilledCumulative: 10, InjuredCumulative: injured(30)},
		{ReportDate: day("2024-01-02"), KilledCumulative: 15, InjuredCumulative: injured(45)},
		{ReportDate: day("2024-01-03"), KilledCumulative: 13},
	}

	got := Summarize(records, reports)

	want := model.SummaryMetrics{
		TotalDeaths:       15,
		CumulativeInjured: 45,
		ChildrenCount:     2,
		MenCount:          2,
		WomenCount:        2,
	}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarize_NoInjuredField(t *testing.T) {
	got := Summarize(nil, reportsOf(1, 2, 3))
	if got.CumulativeInjured != 0 {
		t.Errorf("CumulativeInjured = %d, want 0", got.CumulativeInjured)
	}
	if got.TotalDeaths != 3 {
		t.Errorf("TotalDeaths = %d, want 3", got.TotalDeaths)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil, nil); got != (model.SummaryMetrics{}) {
		t.Errorf("Summarize(nil, nil) = %+v, want zero", got)
	}
}

func TestSummarize_IndependentOfDateFilter(t *testing.T) {
	records := []model.CasualtyRecord{
		rec(ageOf(5), model.SexMale),
		rec(ageOf(33), model.SexFemale),
	}
	reports := reportsOf(10, 20, 30, 40, 50)

	full := Summarize(records, reports)

	narrow, err := FilterByDateRange(reports, day("2024-01-02"), day("2024-01-02"))
	if err != nil {
		t.Fatalf("FilterByDateRange() error: %v", err)
	}
	if _, err := DeriveDailySeries(narrow, 3); err != nil {
		t.Fatalf("DeriveDailySeries() error: %v", err)
	}

	// The summary is always taken over the full sets, whatever view the series uses.
	again := Summarize(records, reports)
	if again != full {
		t.Errorf("Summarize() changed after filtering: %+v vs %+v", again, full)
	}
	if full.TotalDeaths != 50 {
		t.Errorf("TotalDeaths = %d, want 50", full.TotalDeaths)
	}
}

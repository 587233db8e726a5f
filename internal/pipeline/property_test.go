package pipeline

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/rickgao/casualty-monitor/internal/model"
)

func fakeRecords(f *gofakeit.Faker, n int) []model.CasualtyRecord {
	sexes := []model.Sex{model.SexUnknown, model.SexMale, model.SexFemale}
	records := make([]model.CasualtyRecord, n)
	for i := range records {
		records[i].Sex = sexes[f.IntRange(0, len(sexes)-1)]
		if f.Bool() {
			age := f.IntRange(0, 115)
			records[i].Age = &age
		}
	}
	return records
}

func fakeReports(f *gofakeit.Faker, n int) []model.DailyCasualtyReport {
	cums := make([]int64, n)
	var cum int64
	for i := range cums {
		// Mostly increasing, with the occasional downward correction.
		cum += int64(f.IntRange(-20, 400))
		cums[i] = cum
	}
	return reportsOf(cums...)
}

func TestProperty_CategorizeIsTotal(t *testing.T) {
	f := gofakeit.New(7)
	records := fakeRecords(f, 2000)

	counts := CountCategories(records)
	if counts.Total() != len(records) {
		t.Errorf("categories cover %d records, want %d", counts.Total(), len(records))
	}

	for _, r := range records {
		first := Categorize(r)
		if again := Categorize(r); again != first {
			t.Fatalf("Categorize not deterministic for %+v: %s then %s", r, first, again)
		}
		if r.Age != nil && *r.Age < AdultAge && first != model.CategoryChildren {
			t.Errorf("record %+v under 18 categorised as %s", r, first)
		}
	}
}

func TestProperty_SeriesShape(t *testing.T) {
	f := gofakeit.New(11)

	for iter := 0; iter < 50; iter++ {
		reports := fakeReports(f, f.IntRange(1, 120))
		window := f.IntRange(MinWindow, MaxWindow)

		series, err := DeriveDailySeries(reports, window)
		if err != nil {
			t.Fatalf("DeriveDailySeries() error: %v", err)
		}
		if len(series) != len(reports) {
			t.Fatalf("len(series) = %d, want %d", len(series), len(reports))
		}
		if series[0].IncrementalDeaths != reports[0].KilledCumulative {
			t.Fatalf("first increment = %d, want %d", series[0].IncrementalDeaths, reports[0].KilledCumulative)
		}

		// Increments telescope back to the last cumulative value.
		var sum int64
		for _, p := range series {
			sum += p.IncrementalDeaths
		}
		if sum != reports[len(reports)-1].KilledCumulative {
			t.Fatalf("sum of increments = %d, want %d", sum, reports[len(reports)-1].KilledCumulative)
		}

		unit, err := DeriveDailySeries(reports, 1)
		if err != nil {
			t.Fatalf("DeriveDailySeries(window=1) error: %v", err)
		}
		for i, p := range unit {
			if p.MovingAverage != float64(p.IncrementalDeaths) {
				t.Fatalf("window=1 average[%d] = %v, want %d", i, p.MovingAverage, p.IncrementalDeaths)
			}
		}
	}
}

func TestProperty_SummaryIgnoresFilter(t *testing.T) {
	f := gofakeit.New(23)
	records := fakeRecords(f, 500)
	reports := fakeReports(f, 90)

	full := Summarize(records, reports)

	for iter := 0; iter < 20; iter++ {
		i := f.IntRange(0, len(reports)-1)
		j := f.IntRange(i, len(reports)-1)
		if _, err := FilterByDateRange(reports, reports[i].ReportDate, reports[j].ReportDate); err != nil {
			t.Fatalf("FilterByDateRange() error: %v", err)
		}
		if got := Summarize(records, reports); got != full {
			t.Fatalf("Summarize() = %+v after filtering, want %+v", got, full)
		}
	}
}

package pipeline

import "github.com/rickgao/casualty-monitor/internal/model"

// Summarize computes the headline metrics.
//
// TotalDeaths and CumulativeInjured are the maxima of their cumulative series,
// not sums of increments. Callers pass the full record and report sets: the
// summary is deliberately independent of any date filter applied to the series.
func Summarize(records []model.CasualtyRecord, reports []model.DailyCasualtyReport) model.SummaryMetrics {
	var m model.SummaryMetrics

	for i, r := range reports {
		if i == 0 || r.KilledCumulative > m.TotalDeaths {
			m.TotalDeaths = r.KilledCumulative
		}
		if r.InjuredCumulative != nil && *r.InjuredCumulative > m.CumulativeInjured {
			m.CumulativeInjured = *r.InjuredCumulative
		}
	}

	for _, r := range records {
		if r.HasAge() && *r.Age < AdultAge {
			m.ChildrenCount++
		}
		switch r.Sex {
		case model.SexMale:
			m.MenCount++
		case model.SexFemale:
			m.WomenCount++
		}
	}

	return m
}

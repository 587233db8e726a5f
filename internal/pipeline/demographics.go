package pipeline

import "github.com/rickgao/casualty-monitor/internal/model"

// Age thresholds for categorisation.
const (
	AdultAge  = 18
	SeniorAge = 60
)

// AgeHistogramInput returns the known ages in record order. Ages are not clipped.
func AgeHistogramInput(records []model.CasualtyRecord) []int {
	ages := make([]int, 0, len(records))
	for _, r := range records {
		if r.HasAge() {
			ages = append(ages, *r.Age)
		}
	}
	return ages
}

// HistogramBins counts ages per year from 0 to model.MaxHistogramAge.
// Older ages land in Overflow.
func HistogramBins(ages []int) model.AgeHistogram {
	h := model.AgeHistogram{Bins: make([]int, model.MaxHistogramAge+1)}
	for _, age := range ages {
		switch {
		case age < 0:
			continue
		case age > model.MaxHistogramAge:
			h.Overflow++
		default:
			h.Bins[age]++
		}
	}
	return h
}

// Categorize assigns a record to its demographic bucket. Rules apply in order:
// unknown age is Others, under 18 is Children, female is Women, 60 and over is
// Seniors, anything else is Others.
func Categorize(r model.CasualtyRecord) model.Category {
	switch {
	case !r.HasAge():
		return model.CategoryOthers
	case *r.Age < AdultAge:
		return model.CategoryChildren
	case r.Sex == model.SexFemale:
		return model.CategoryWomen
	case *r.Age >= SeniorAge:
		return model.CategorySeniors
	default:
		return model.CategoryOthers
	}
}

// CountCategories tallies records per category. All four categories are present
// in the result, zero when empty.
func CountCategories(records []model.CasualtyRecord) model.CategoryCounts {
	counts := make(model.CategoryCounts, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for _, r := range records {
		counts[Categorize(r)]++
	}
	return counts
}

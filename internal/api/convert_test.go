package api

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rickgao/casualty-monitor/internal/model"
)

func TestParseReportDate(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"date only", "2024-01-02", false},
		{"rfc3339", "2024-01-02T13:45:00Z", false},
		{"rfc3339 offset", "2024-01-02T01:00:00+02:00", false},
		{"no timezone", "2024-01-02T08:00:00", false},
		{"space separated", "2024-01-02 08:00:00", false},
		{"padded", "  2024-01-02 ", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
		{"invalid month", "2024-13-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReportDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseReportDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("ParseReportDate(%q) error should wrap ErrMalformedRecord", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReportDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseReportDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestAPIKilledPerson_ToModel(t *testing.T) {
	age := func(v float64) *float64 { return &v }
	sex := func(v string) *string { return &v }

	tests := []struct {
		name    string
		in      APIKilledPerson
		wantAge *int
		wantSex model.Sex
		wantErr bool
	}{
		{"full", APIKilledPerson{Age: age(34), Sex: sex("m")}, intPtr(34), model.SexMale, false},
		{"fractional age truncates", APIKilledPerson{Age: age(0.5), Sex: sex("f")}, intPtr(0), model.SexFemale, false},
		{"missing age", APIKilledPerson{Sex: sex("f")}, nil, model.SexFemale, false},
		{"missing sex", APIKilledPerson{Age: age(70)}, intPtr(70), model.SexUnknown, false},
		{"missing both", APIKilledPerson{}, nil, model.SexUnknown, false},
		{"unknown sex code", APIKilledPerson{Age: age(20), Sex: sex("?")}, intPtr(20), model.SexUnknown, false},
		{"negative age", APIKilledPerson{Age: age(-1)}, nil, model.SexUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ToModel()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("ToModel() error = %v, want ErrMalformedRecord", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToModel() unexpected error: %v", err)
			}
			if (got.Age == nil) != (tt.wantAge == nil) {
				t.Fatalf("Age = %v, want %v", got.Age, tt.wantAge)
			}
			if got.Age != nil && *got.Age != *tt.wantAge {
				t.Errorf("Age = %d, want %d", *got.Age, *tt.wantAge)
			}
			if got.Sex != tt.wantSex {
				t.Errorf("Sex = %v, want %v", got.Sex, tt.wantSex)
			}
		})
	}
}

func TestAPIDailyReport_ToModel(t *testing.T) {
	killed := 120.0
	injured := 300.0

	t.Run("full report", func(t *testing.T) {
		r := APIDailyReport{ReportDate: "2023-10-07", KilledCum: &killed, InjuredCum: &injured}
		got, err := r.ToModel()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.KilledCumulative != 120 {
			t.Errorf("KilledCumulative = %d, want 120", got.KilledCumulative)
		}
		if got.InjuredCumulative == nil || *got.InjuredCumulative != 300 {
			t.Errorf("InjuredCumulative = %v, want 300", got.InjuredCumulative)
		}
	})

	t.Run("missing injured", func(t *testing.T) {
		r := APIDailyReport{ReportDate: "2023-10-07", KilledCum: &killed}
		got, err := r.ToModel()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.InjuredCumulative != nil {
			t.Errorf("InjuredCumulative = %v, want nil", *got.InjuredCumulative)
		}
	})

	t.Run("missing killed", func(t *testing.T) {
		r := APIDailyReport{ReportDate: "2023-10-07"}
		if _, err := r.ToModel(); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("ToModel() error = %v, want ErrMalformedRecord", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		r := APIDailyReport{ReportDate: "not-a-date", KilledCum: &killed}
		if _, err := r.ToModel(); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ToModel() error = %v, want ErrInvalidDate", err)
		}
	})
}

func TestDecodeKilled(t *testing.T) {
	elems := rawElems(t, `[
		{"age": 5, "sex": "m", "name": "ignored"},
		{"sex": "f"},
		"not an object",
		{"age": "forty"},
		{"age": -3},
		null,
		{}
	]`)

	records, skipped := DecodeKilled(elems)

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if len(skipped) != 4 {
		t.Fatalf("len(skipped) = %d, want 4", len(skipped))
	}
	for _, err := range skipped {
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("skipped error %v should wrap ErrMalformedRecord", err)
		}
	}
	if records[0].Age == nil || *records[0].Age != 5 || records[0].Sex != model.SexMale {
		t.Errorf("records[0] = %+v, want age 5 male", records[0])
	}
	if records[1].Age != nil || records[1].Sex != model.SexFemale {
		t.Errorf("records[1] = %+v, want unknown age female", records[1])
	}
	if records[2].Age != nil || records[2].Sex != model.SexUnknown {
		t.Errorf("records[2] = %+v, want all unknown", records[2])
	}
}

func TestDecodeDaily(t *testing.T) {
	elems := rawElems(t, `[
		{"report_date": "2024-01-02", "killed_cum": 15, "injured_cum": 40},
		{"report_date": "garbage", "killed_cum": 20},
		{"report_date": "2024-01-01", "killed_cum": 10},
		{"report_date": "2024-01-03"},
		42
	]`)

	reports, skipped := DecodeDaily(elems)

	if len(reports) != 2 {
		t.Fatalf("len(reports) = %d, want 2", len(reports))
	}
	if len(skipped) != 3 {
		t.Errorf("len(skipped) = %d, want 3", len(skipped))
	}
	// Upstream order is preserved; sorting is the caller's job.
	if reports[0].KilledCumulative != 15 || reports[1].KilledCumulative != 10 {
		t.Errorf("reports order = %d,%d, want 15,10", reports[0].KilledCumulative, reports[1].KilledCumulative)
	}
}

func intPtr(v int) *int { return &v }

func rawElems(t *testing.T, s string) []json.RawMessage {
	t.Helper()
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return elems
}

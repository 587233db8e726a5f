package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// ErrMalformedRecord marks a single dataset element that could not be coerced
// into its model type. The element is skipped; the batch continues.
var ErrMalformedRecord = errors.New("malformed record")

// ErrInvalidDate is returned for report elements whose report_date cannot be parsed.
var ErrInvalidDate = fmt.Errorf("%w: invalid report_date", ErrMalformedRecord)

// reportDateLayouts are tried in order when parsing report_date.
var reportDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseReportDate parses a report date and truncates it to UTC midnight.
func ParseReportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range reportDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ToModel converts an APIKilledPerson to model.CasualtyRecord.
// Missing age or sex become unknown; a negative or absurd age is malformed.
func (p *APIKilledPerson) ToModel() (model.CasualtyRecord, error) {
	var rec model.CasualtyRecord

	if p.Age != nil {
		age := *p.Age
		if age < 0 || age > math.MaxInt32 {
			return rec, fmt.Errorf("%w: age %v out of range", ErrMalformedRecord, age)
		}
		years := int(math.Trunc(age))
		rec.Age = &years
	}

	if p.Sex != nil {
		rec.Sex = model.ParseSex(*p.Sex)
	}

	return rec, nil
}

// ToModel converts an APIDailyReport to model.DailyCasualtyReport.
func (r *APIDailyReport) ToModel() (model.DailyCasualtyReport, error) {
	var rep model.DailyCasualtyReport

	date, err := ParseReportDate(r.ReportDate)
	if err != nil {
		return rep, err
	}
	if r.KilledCum == nil {
		return rep, fmt.Errorf("%w: report %s missing killed_cum", ErrMalformedRecord, r.ReportDate)
	}

	rep.ReportDate = date
	rep.KilledCumulative = int64(math.Trunc(*r.KilledCum))
	if r.InjuredCum != nil {
		injured := int64(math.Trunc(*r.InjuredCum))
		rep.InjuredCumulative = &injured
	}

	return rep, nil
}

// DecodeKilled coerces raw killed-dataset elements into records.
// Elements that fail are skipped and returned as errors wrapping ErrMalformedRecord.
func DecodeKilled(elems []json.RawMessage) ([]model.CasualtyRecord, []error) {
	records := make([]model.CasualtyRecord, 0, len(elems))
	var skipped []error

	for i, raw := range elems {
		if isNull(raw) {
			skipped = append(skipped, fmt.Errorf("%w: killed[%d]: null element", ErrMalformedRecord, i))
			continue
		}
		var p APIKilledPerson
		if err := json.Unmarshal(raw, &p); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: killed[%d]: %v", ErrMalformedRecord, i, err))
			continue
		}
		rec, err := p.ToModel()
		if err != nil {
			skipped = append(skipped, fmt.Errorf("killed[%d]: %w", i, err))
			continue
		}
		records = append(records, rec)
	}

	return records, skipped
}

// DecodeDaily coerces raw daily-dataset elements into reports, preserving order.
// Elements that fail, including those with unparseable dates, are skipped.
func DecodeDaily(elems []json.RawMessage) ([]model.DailyCasualtyReport, []error) {
	reports := make([]model.DailyCasualtyReport, 0, len(elems))
	var skipped []error

	for i, raw := range elems {
		if isNull(raw) {
			skipped = append(skipped, fmt.Errorf("%w: daily[%d]: null element", ErrMalformedRecord, i))
			continue
		}
		var r APIDailyReport
		if err := json.Unmarshal(raw, &r); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: daily[%d]: %v", ErrMalformedRecord, i, err))
			continue
		}
		rep, err := r.ToModel()
		if err != nil {
			skipped = append(skipped, fmt.Errorf("daily[%d]: %w", i, err))
			continue
		}
		reports = append(reports, rep)
	}

	return reports, skipped
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

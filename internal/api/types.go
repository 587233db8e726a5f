package api

// APIKilledPerson is one element of the killed-in-gaza dataset.
// Only the fields the monitor uses are decoded; the rest are ignored.
type APIKilledPerson struct {
	Age *float64 `json:"age"`
	Sex *string  `json:"sex"`
}

// APIDailyReport is one element of the casualties_daily dataset.
type APIDailyReport struct {
	ReportDate string   `json:"report_date"`
	KilledCum  *float64 `json:"killed_cum"`
	InjuredCum *float64 `json:"injured_cum"`
}

package model

import "sort"

// Record is the DayLog shape crossing storage and HTTP boundaries.
type Record struct {
	Date        string `json:"date"`
	WorkoutDone bool   `json:"workoutDone"`
	DietDone    bool   `json:"dietDone"`
	IsRestDay   bool   `json:"isRestDay"`
	Notes       string `json:"notes,omitempty"`
}

// ToRecord converts l to its wire shape.
func (l DayLog) ToRecord() Record {
	return Record{
		Date:        l.Date.String(),
		WorkoutDone: l.WorkoutDone,
		DietDone:    l.DietDone,
		IsRestDay:   l.IsRestDay,
		Notes:       l.Notes,
	}
}

// DayLog converts r back to a DayLog, validating the date.
func (r Record) DayLog() (DayLog, error) {
	d, err := ParseDate(r.Date)
	if err != nil {
		return DayLog{}, err
	}
	return DayLog{
		Date:        d,
		WorkoutDone: r.WorkoutDone,
		DietDone:    r.DietDone,
		IsRestDay:   r.IsRestDay,
		Notes:       r.Notes,
	}, nil
}

// ToRecords converts logs to records ordered by date ascending.
func ToRecords(logs []DayLog) []Record {
	out := make([]Record, len(logs))
	sorted := append([]DayLog(nil), logs...)
	SortAscending(sorted)
	for i, l := range sorted {
		out[i] = l.ToRecord()
	}
	return out
}

// FromRecords converts records to logs. A later record for the same date replaces an earlier one.
func FromRecords(records []Record) ([]DayLog, error) {
	byDate := make(map[Date]int, len(records))
	out := make([]DayLog, 0, len(records))
	for _, r := range records {
		l, err := r.DayLog()
		if err != nil {
			return nil, err
		}
		if i, ok := byDate[l.Date]; ok {
			out[i] = l
			continue
		}
		byDate[l.Date] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// SortAscending orders logs by date, oldest first.
func SortAscending(logs []DayLog) {
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date < logs[j].Date })
}

// SortDescending orders logs by date, newest first.
func SortDescending(logs []DayLog) {
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
}

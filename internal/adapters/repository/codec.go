package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/streak/internal/domain/model"
)

// encode renders a collection in its stored shape: a JSON array of records
// ordered by date.
func encode(logs []model.DayLog) ([]byte, error) {
	b, err := json.Marshal(model.ToRecords(logs))
	if err != nil {
		return nil, fmt.Errorf("encode day logs: %w", err)
	}
	return b, nil
}

// decode parses the stored shape. Empty input is an empty collection.
func decode(b []byte) ([]model.DayLog, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var records []model.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode day logs: %w", err)
	}
	logs, err := model.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("decode day logs: %w", err)
	}
	return logs, nil
}

package gateway

import (
	"time"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z"

// BuildRow serializes a record into one sheet row: timestamp, the fixed
// fields in wire order, then answers exactly in the order the record holds them.
func BuildRow(record *models.ApplicationRecord, now time.Time) []interface{} {
	fixed := record.Fixed.Values()
	row := make([]interface{}, 0, 1+len(fixed)+len(record.Answers))

	row = append(row, now.UTC().Format(timestampLayout))
	for _, v := range fixed {
		row = append(row, v)
	}
	for _, a := range record.Answers {
		row = append(row, a.Answer)
	}
	return row
}

package model

import "time"

// Note is the persisted note record. Tags are stored as a comma-separated
// string; EventDate and EventTime hold normalized "2006-01-02" and "15:04"
// values, empty when unset. The wire representation lives in dto.
type Note struct {
	ID        int64
	Title     string
	Content   string
	Tags      string
	EventDate string
	EventTime string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

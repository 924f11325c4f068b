package models

import (
	"time"
)

// ExercisePackage is a leaf record attached to exactly one tree node.
type ExercisePackage struct {
	ID          int64
	Name        string
	Description string
	CreateDate  time.Time
	ChangeDate  time.Time
	SortOrder   int
	NodeID      int64

	// NodeText is joined in for detail responses, not stored on the row.
	NodeText string

	// Assignment holds the original upload filename, without the id prefix
	// the file carries in the assigned-packages directory. Empty = none.
	Assignment string
}

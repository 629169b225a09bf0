package entity

import "time"

// Status enumerates the lifecycle states a production order can be in.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusPending, StatusApproved, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// statusColors maps each status onto its display color. ColorCode is always
// derived from this table and never set independently.
var statusColors = map[Status]string{
	StatusCompleted:  "#10B981",
	StatusApproved:   "#10B981",
	StatusInProgress: "#3B82F6",
	StatusCancelled:  "#6B7280",
	StatusPlanned:    "#F59E0B",
	StatusPending:    "#F59E0B",
}

// ColorForStatus resolves the display color for a status. Unknown statuses
// fall back to the planned color.
func ColorForStatus(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[StatusPlanned]
}

// Order is a time-ranged work item assigned to one production area and one
// assignee. Dates carry day granularity; time-of-day is ignored everywhere.
type Order struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      Status    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	// Duration is the inclusive day count of [StartDate, EndDate]. Stored
	// redundantly; recomputed whenever either date changes.
	Duration  int    `json:"duration"`
	Area      string `json:"area"`
	Assignee  string `json:"assignee"`
	Progress  int    `json:"progress"`
	ColorCode string `json:"colorCode"`
}

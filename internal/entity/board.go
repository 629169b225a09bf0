package entity

import "time"

// ViewMode selects the calendar rendering granularity.
type ViewMode string

const (
	ViewMonthly ViewMode = "monthly"
	ViewWeekly  ViewMode = "weekly"
)

// Valid reports whether the view mode is known.
func (m ViewMode) Valid() bool {
	return m == ViewMonthly || m == ViewWeekly
}

// BoardState is the full persisted state of the scheduling board: the order
// collection plus the transient UI selection and filter state that travels
// with it. It serializes to the single named record in durable storage.
type BoardState struct {
	Orders          []Order   `json:"orders"`
	SelectedOrderID *string   `json:"selectedOrderId"`
	CurrentDate     time.Time `json:"currentDate"`
	ViewMode        ViewMode  `json:"viewMode"`
	StatusFilter    *Status   `json:"statusFilter"`
}

// NewBoardState returns an empty state anchored at the given date.
func NewBoardState(now time.Time) BoardState {
	return BoardState{
		Orders:      []Order{},
		CurrentDate: now,
		ViewMode:    ViewMonthly,
	}
}

// Clone returns a deep copy so callers never alias the live order slice.
func (s BoardState) Clone() BoardState {
	out := s
	out.Orders = append([]Order(nil), s.Orders...)
	if s.SelectedOrderID != nil {
		id := *s.SelectedOrderID
		out.SelectedOrderID = &id
	}
	if s.StatusFilter != nil {
		f := *s.StatusFilter
		out.StatusFilter = &f
	}
	return out
}

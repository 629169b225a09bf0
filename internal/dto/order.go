package dto

import (
	"time"

	"github.com/Additional-Code/planboard/internal/entity"
)

// DateFormat is the wire form of all calendar dates.
const DateFormat = "2006-01-02"

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Duration    int    `json:"duration"`
	Area        string `json:"area"`
	Assignee    string `json:"assignee"`
	Progress    int    `json:"progress"`
	ColorCode   string `json:"colorCode"`
}

// FromOrder maps a domain order onto its transport shape.
func FromOrder(o entity.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		StartDate:   o.StartDate.Format(DateFormat),
		EndDate:     o.EndDate.Format(DateFormat),
		Duration:    o.Duration,
		Area:        o.Area,
		Assignee:    o.Assignee,
		Progress:    o.Progress,
		ColorCode:   o.ColorCode,
	}
}

// FromOrders maps a slice of domain orders.
func FromOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}

// BoardStateResponse is the full board snapshot as exposed over HTTP.
type BoardStateResponse struct {
	Orders          []OrderResponse `json:"orders"`
	SelectedOrderID *string         `json:"selectedOrderId"`
	CurrentDate     string          `json:"currentDate"`
	ViewMode        string          `json:"viewMode"`
	StatusFilter    *string         `json:"statusFilter"`
}

// FromBoardState maps a board snapshot onto its transport shape.
func FromBoardState(s entity.BoardState) BoardStateResponse {
	resp := BoardStateResponse{
		Orders:          FromOrders(s.Orders),
		SelectedOrderID: s.SelectedOrderID,
		CurrentDate:     s.CurrentDate.Format(DateFormat),
		ViewMode:        string(s.ViewMode),
	}
	if s.StatusFilter != nil {
		f := string(*s.StatusFilter)
		resp.StatusFilter = &f
	}
	return resp
}

// DayOrdersResponse is one calendar cell: a day plus the orders covering it.
type DayOrdersResponse struct {
	Date   string          `json:"date"`
	Orders []OrderResponse `json:"orders"`
}

// WeekResponse is one 7-day page of the month grid.
type WeekResponse struct {
	Start string   `json:"start"`
	Days  []string `json:"days"`
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

package board

import (
	"sort"
	"time"

	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/pkg/timegrid"
)

// OrdersOnDay returns the orders whose inclusive [start, end] range contains
// the given day, further restricted by the status filter when set. Input
// order is preserved.
func OrdersOnDay(orders []entity.Order, day time.Time, filter *entity.Status) []entity.Order {
	out := make([]entity.Order, 0)
	for _, o := range orders {
		if !timegrid.WithinRange(day, o.StartDate, o.EndDate) {
			continue
		}
		if filter != nil && o.Status != *filter {
			continue
		}
		out = append(out, o)
	}
	return out
}

// OrdersForList returns the list-view projection: filtered by status when a
// filter is set, sorted by start date descending. The sort is stable so
// equal start dates keep their insertion order.
func OrdersForList(orders []entity.Order, filter *entity.Status) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		if filter != nil && o.Status != *filter {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

// OrdersOnDay applies the current status filter to the stored collection.
// Derived on every call; never cached.
func (s *Service) OrdersOnDay(day time.Time) []entity.Order {
	s.mu.Lock()
	orders := append([]entity.Order(nil), s.state.Orders...)
	filter := s.state.StatusFilter
	s.mu.Unlock()
	return OrdersOnDay(orders, day, filter)
}

// OrdersForList applies the current status filter to the stored collection.
func (s *Service) OrdersForList() []entity.Order {
	s.mu.Lock()
	orders := append([]entity.Order(nil), s.state.Orders...)
	filter := s.state.StatusFilter
	s.mu.Unlock()
	return OrdersForList(orders, filter)
}

// Weeks pages the month of the given date one calendar week at a time, for
// the weekly view mode.
func (s *Service) Weeks(date time.Time) []timegrid.Week {
	return timegrid.WeeksInMonth(date)
}

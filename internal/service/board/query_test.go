package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/planboard/internal/entity"
)

func order(id string, status entity.Status, start, end time.Time) entity.Order {
	return entity.Order{
		ID:        id,
		Status:    status,
		StartDate: start,
		EndDate:   end,
		Area:      "Production Line A",
	}
}

func ids(orders []entity.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestOrdersOnDayInclusiveBoundaries(t *testing.T) {
	o := order("a", entity.StatusPlanned, date(2025, time.August, 5), date(2025, time.August, 17))
	orders := []entity.Order{o}

	assert.Empty(t, OrdersOnDay(orders, date(2025, time.August, 4), nil))
	assert.Len(t, OrdersOnDay(orders, date(2025, time.August, 5), nil), 1, "start day included")
	assert.Len(t, OrdersOnDay(orders, date(2025, time.August, 10), nil), 1, "interior day included")
	assert.Len(t, OrdersOnDay(orders, date(2025, time.August, 17), nil), 1, "end day included")
	assert.Empty(t, OrdersOnDay(orders, date(2025, time.August, 18), nil))
}

func TestOrdersOnDayStatusFilter(t *testing.T) {
	day := date(2025, time.August, 10)
	orders := []entity.Order{
		order("a", entity.StatusPlanned, date(2025, time.August, 5), date(2025, time.August, 17)),
		order("b", entity.StatusCompleted, date(2025, time.August, 9), date(2025, time.August, 11)),
	}

	assert.Equal(t, []string{"a", "b"}, ids(OrdersOnDay(orders, day, nil)))

	completed := entity.StatusCompleted
	assert.Equal(t, []string{"b"}, ids(OrdersOnDay(orders, day, &completed)))

	cancelled := entity.StatusCancelled
	assert.Empty(t, OrdersOnDay(orders, day, &cancelled))
}

func TestOrdersForListSortsByStartDateDescending(t *testing.T) {
	orders := []entity.Order{
		order("old", entity.StatusPlanned, date(2025, time.August, 1), date(2025, time.August, 2)),
		order("new", entity.StatusPlanned, date(2025, time.August, 20), date(2025, time.August, 21)),
		order("mid", entity.StatusPlanned, date(2025, time.August, 10), date(2025, time.August, 11)),
	}

	assert.Equal(t, []string{"new", "mid", "old"}, ids(OrdersForList(orders, nil)))
}

func TestOrdersForListStableOnTies(t *testing.T) {
	start := date(2025, time.August, 10)
	orders := []entity.Order{
		order("first", entity.StatusPlanned, start, date(2025, time.August, 11)),
		order("second", entity.StatusPlanned, start, date(2025, time.August, 12)),
		order("third", entity.StatusPlanned, start, date(2025, time.August, 13)),
	}

	assert.Equal(t, []string{"first", "second", "third"}, ids(OrdersForList(orders, nil)),
		"equal start dates keep insertion order")
}

func TestOrdersForListFilter(t *testing.T) {
	orders := []entity.Order{
		order("a", entity.StatusPlanned, date(2025, time.August, 1), date(2025, time.August, 2)),
		order("b", entity.StatusCompleted, date(2025, time.August, 5), date(2025, time.August, 6)),
	}
	completed := entity.StatusCompleted
	assert.Equal(t, []string{"b"}, ids(OrdersForList(orders, &completed)))
}

func TestQueryLayerIsDerived(t *testing.T) {
	env := newTestService(t)

	orders := []entity.Order{
		order("a", entity.StatusPlanned, date(2025, time.August, 5), date(2025, time.August, 17)),
	}
	env.svc.state.Orders = orders

	got := env.svc.OrdersOnDay(date(2025, time.August, 10))
	got[0].ID = "mutated"
	again := env.svc.OrdersOnDay(date(2025, time.August, 10))
	assert.Equal(t, "a", again[0].ID, "query results never alias store state")
}

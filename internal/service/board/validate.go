package board

import (
	"fmt"
	"time"

	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/pkg/errorbank"
	"github.com/Additional-Code/planboard/pkg/timegrid"
)

// Stable error codes surfaced to callers alongside the addressed field, so a
// form can render failures inline.
const (
	CodeMissingField     = "MISSING_FIELD"
	CodeDateOrderInvalid = "DATE_ORDER_INVALID"
	CodeDateInPast       = "DATE_IN_PAST"
	CodeAreaConflict     = "AREA_CONFLICT"
	CodeOrderNotFound    = "ORDER_NOT_FOUND"
)

// validateDraft runs every creation-time check against the current
// collection. Caller holds the state lock. All checks run before any
// mutation; the first failure is returned and nothing changes.
func (s *Service) validateDraft(draft OrderDraft) error {
	if draft.Area == "" {
		return errorbank.BadRequest("area is required", errorbank.WithCode(CodeMissingField), errorbank.WithField("area"))
	}
	if draft.Assignee == "" {
		return errorbank.BadRequest("assignee is required", errorbank.WithCode(CodeMissingField), errorbank.WithField("assignee"))
	}
	if draft.Status == "" {
		return errorbank.BadRequest("status is required", errorbank.WithCode(CodeMissingField), errorbank.WithField("status"))
	}
	if !draft.Status.Valid() {
		return errorbank.BadRequest(fmt.Sprintf("unknown status %q", draft.Status), errorbank.WithField("status"))
	}
	if draft.StartDate.IsZero() {
		return errorbank.BadRequest("start date is required", errorbank.WithCode(CodeMissingField), errorbank.WithField("startDate"))
	}
	if draft.EndDate.IsZero() {
		return errorbank.BadRequest("end date is required", errorbank.WithCode(CodeMissingField), errorbank.WithField("endDate"))
	}

	start := timegrid.Day(draft.StartDate)
	end := timegrid.Day(draft.EndDate)

	if start.After(end) {
		return errorbank.Unprocessable("end date must not precede start date",
			errorbank.WithCode(CodeDateOrderInvalid), errorbank.WithField("endDate"))
	}
	if start.Before(timegrid.Day(s.now())) {
		return errorbank.Unprocessable("start date cannot be in the past",
			errorbank.WithCode(CodeDateInPast), errorbank.WithField("startDate"))
	}

	if conflict, ok := findConflict(s.state.Orders, draft.Area, start, end); ok {
		return errorbank.Conflict(
			fmt.Sprintf("order conflicts with an existing order in area %s", draft.Area),
			errorbank.WithCode(CodeAreaConflict),
			errorbank.WithField("area"),
			errorbank.WithDetail("area", draft.Area),
			errorbank.WithDetail("conflictsWith", conflict.OrderNumber),
		)
	}
	return nil
}

// findConflict reports the first existing order in the same area whose
// inclusive date range overlaps [start, end]. Orders in other areas never
// conflict; each area is an independent resource.
func findConflict(orders []entity.Order, area string, start, end time.Time) (entity.Order, bool) {
	for _, o := range orders {
		if o.Area != area {
			continue
		}
		if overlaps(start, end, o.StartDate, o.EndDate) {
			return o, true
		}
	}
	return entity.Order{}, false
}

// overlaps implements inclusive-endpoint interval overlap by calendar day:
// aStart <= bEnd && bStart <= aEnd.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !timegrid.Day(aStart).After(timegrid.Day(bEnd)) && !timegrid.Day(bStart).After(timegrid.Day(aEnd))
}

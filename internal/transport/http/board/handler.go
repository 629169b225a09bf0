package board

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/planboard/internal/dto"
	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/internal/presentation/http/response"
	service "github.com/Additional-Code/planboard/internal/service/board"
	"github.com/Additional-Code/planboard/pkg/errorbank"
	"github.com/Additional-Code/planboard/pkg/timegrid"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/planboard/transport/http/board")

// Handler exposes the scheduling board over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a board Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	b := e.Group("/board")
	b.GET("", h.getBoard)
	b.PUT("/date", h.setCurrentDate)
	b.PUT("/view", h.setViewMode)
	b.PUT("/filter", h.setStatusFilter)
	b.POST("/selection", h.selectOrder)

	o := e.Group("/orders")
	o.GET("", h.listOrders)
	o.POST("", h.createOrder)
	o.GET("/:id", h.getOrder)
	o.PATCH("/:id", h.updateOrder)
	o.DELETE("/:id", h.deleteOrder)

	c := e.Group("/calendar")
	c.GET("/days", h.calendarDays)
	c.GET("/weeks", h.calendarWeeks)
}

func (h *Handler) getBoard(c echo.Context) error {
	b := response.New(c)
	return b.WithData(dto.FromBoardState(h.svc.State())).Build()
}

func (h *Handler) setCurrentDate(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	date, err := dto.ParseDate(payload.Date)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid date", errorbank.WithField("date"), errorbank.WithCause(err))).Build()
	}

	h.svc.SetCurrentDate(c.Request().Context(), date)
	return b.WithData(dto.FromBoardState(h.svc.State())).Build()
}

func (h *Handler) setViewMode(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		ViewMode string `json:"viewMode"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	if err := h.svc.SetViewMode(c.Request().Context(), entity.ViewMode(payload.ViewMode)); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromBoardState(h.svc.State())).Build()
}

func (h *Handler) setStatusFilter(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Status *string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	var filter *entity.Status
	if payload.Status != nil && *payload.Status != "" {
		s := entity.Status(*payload.Status)
		filter = &s
	}
	if err := h.svc.SetStatusFilter(c.Request().Context(), filter); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromBoardState(h.svc.State())).Build()
}

func (h *Handler) selectOrder(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		OrderID *string `json:"orderId"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	h.svc.SelectOrder(c.Request().Context(), payload.OrderID)
	return b.WithData(dto.FromBoardState(h.svc.State())).Build()
}

func (h *Handler) listOrders(c echo.Context) error {
	b := response.New(c)
	orders := h.svc.OrdersForList()
	return b.WithData(dto.FromOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getOrder(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "board.getOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

type orderPayload struct {
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Area      string `json:"area"`
	Assignee  string `json:"assignee"`
	Progress  int    `json:"progress"`
}

func (h *Handler) createOrder(c echo.Context) error {
	b := response.New(c)

	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	draft := service.OrderDraft{
		Status:   entity.Status(payload.Status),
		Area:     payload.Area,
		Assignee: payload.Assignee,
		Progress: payload.Progress,
	}
	var err error
	if draft.StartDate, err = parseOptionalDate(payload.StartDate); err != nil {
		return b.WithError(errorbank.BadRequest("invalid start date", errorbank.WithField("startDate"), errorbank.WithCause(err))).Build()
	}
	if draft.EndDate, err = parseOptionalDate(payload.EndDate); err != nil {
		return b.WithError(errorbank.BadRequest("invalid end date", errorbank.WithField("endDate"), errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "board.createOrder", trace.WithAttributes(attribute.String("order.area", draft.Area)))
	defer span.End()

	order, err := h.svc.CreateOrder(ctx, draft)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

type orderPatchPayload struct {
	Status    *string `json:"status"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Area      *string `json:"area"`
	Assignee  *string `json:"assignee"`
	Progress  *int    `json:"progress"`
}

func (h *Handler) updateOrder(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload orderPatchPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	patch := service.OrderPatch{
		Area:     payload.Area,
		Assignee: payload.Assignee,
		Progress: payload.Progress,
	}
	if payload.Status != nil {
		s := entity.Status(*payload.Status)
		patch.Status = &s
	}
	if payload.StartDate != nil {
		d, err := dto.ParseDate(*payload.StartDate)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid start date", errorbank.WithField("startDate"), errorbank.WithCause(err))).Build()
		}
		patch.StartDate = &d
	}
	if payload.EndDate != nil {
		d, err := dto.ParseDate(*payload.EndDate)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid end date", errorbank.WithField("endDate"), errorbank.WithCause(err))).Build()
		}
		patch.EndDate = &d
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "board.updateOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.UpdateOrder(ctx, id, patch)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) deleteOrder(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "board.deleteOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.DeleteOrder(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

// calendarDays returns the padded month grid around the requested (or
// current) date, each cell carrying the orders whose range covers it under
// the active status filter.
func (h *Handler) calendarDays(c echo.Context) error {
	b := response.New(c)

	anchor, err := h.anchorDate(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	days := timegrid.MonthDays(anchor)
	cells := make([]dto.DayOrdersResponse, len(days))
	for i, day := range days {
		cells[i] = dto.DayOrdersResponse{
			Date:   day.Format(dto.DateFormat),
			Orders: dto.FromOrders(h.svc.OrdersOnDay(day)),
		}
	}
	return b.WithData(cells).WithMeta("anchor", anchor.Format(dto.DateFormat)).Build()
}

func (h *Handler) calendarWeeks(c echo.Context) error {
	b := response.New(c)

	anchor, err := h.anchorDate(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	weeks := h.svc.Weeks(anchor)
	out := make([]dto.WeekResponse, len(weeks))
	for i, w := range weeks {
		days := make([]string, len(w.Days))
		for j, d := range w.Days {
			days[j] = d.Format(dto.DateFormat)
		}
		out[i] = dto.WeekResponse{Start: w.Start.Format(dto.DateFormat), Days: days}
	}
	return b.WithData(out).WithMeta("anchor", anchor.Format(dto.DateFormat)).Build()
}

// anchorDate resolves the ?date= query parameter, falling back to the
// board's current date.
func (h *Handler) anchorDate(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return h.svc.State().CurrentDate, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return time.Time{}, errorbank.BadRequest("invalid date", errorbank.WithField("date"), errorbank.WithCause(err))
	}
	return d, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return dto.ParseDate(s)
}

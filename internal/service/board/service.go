package board

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/planboard/internal/cache"
	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/internal/messaging"
	repo "github.com/Additional-Code/planboard/internal/repository/state"
	"github.com/Additional-Code/planboard/pkg/errorbank"
	"github.com/Additional-Code/planboard/pkg/timegrid"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/planboard/service/board")

// Store persists the board snapshot as one durable record.
type Store interface {
	Load(ctx context.Context) (entity.BoardState, error)
	Save(ctx context.Context, snapshot entity.BoardState) error
}

// Observer is called with a state snapshot after each successful mutation.
// The hosting/presentation layer is the intended subscriber; the service
// itself never depends on any rendering mechanism.
type Observer func(entity.BoardState)

// OrderDraft carries every order field a caller supplies at creation time.
// ID, order number and color code are generated by the service.
type OrderDraft struct {
	Status    entity.Status
	StartDate time.Time
	EndDate   time.Time
	Area      string
	Assignee  string
	Progress  int
}

// OrderPatch is a partial update; nil fields are left untouched.
type OrderPatch struct {
	Status    *entity.Status
	StartDate *time.Time
	EndDate   *time.Time
	Area      *string
	Assignee  *string
	Progress  *int
}

// Service owns the board state and is its single source of truth. All
// mutations validate first, then persist fire-and-forget, mirror the cache,
// publish an event, and notify observers.
type Service struct {
	mu        sync.Mutex
	state     entity.BoardState
	observers []Observer

	repo      Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig

	now func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository Store
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance with an empty board.
func NewService(p Params) *Service {
	s := &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: time.Now,
	}
	s.state = entity.NewBoardState(timegrid.Day(s.now()))
	return s
}

// Load replaces the in-memory state with the persisted snapshot. A missing
// record is not an error; the board starts empty.
func (s *Service) Load(ctx context.Context) error {
	ctx, span := serviceTracer.Start(ctx, "BoardService.Load")
	defer span.End()

	snapshot, err := s.repo.Load(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to load board state", errorbank.WithCause(err))
	}

	s.mu.Lock()
	s.state = snapshot
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("board state loaded", zap.Int("orders", len(snapshot.Orders)))
	}
	return nil
}

// Subscribe registers an observer for post-mutation snapshots.
func (s *Service) Subscribe(fn Observer) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// State returns a snapshot of the full board state.
func (s *Service) State() entity.BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Order returns the order with the given id from the in-memory collection.
func (s *Service) Order(id string) (entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.state.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return entity.Order{}, false
}

// GetOrder retrieves one order, consulting cache first so read-only replicas
// stay cheap; the in-memory collection remains authoritative.
func (s *Service) GetOrder(ctx context.Context, id string) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BoardService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if cached, err := s.getFromCache(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("order cache read failed", zap.String("id", id), zap.Error(err))
		}
	}

	order, ok := s.Order(id)
	if !ok {
		span.SetStatus(codes.Error, "not found")
		return entity.Order{}, errorbank.NotFound("order not found", errorbank.WithCode(CodeOrderNotFound))
	}
	s.storeInCache(ctx, order)
	return order, nil
}

// CreateOrder validates the draft against the current collection and, on
// success, generates identifiers and appends the order. On any validation
// failure nothing is mutated.
func (s *Service) CreateOrder(ctx context.Context, draft OrderDraft) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BoardService.CreateOrder", trace.WithAttributes(attribute.String("order.area", draft.Area)))
	defer span.End()

	s.mu.Lock()
	if err := s.validateDraft(draft); err != nil {
		s.mu.Unlock()
		span.SetStatus(codes.Error, "validation failed")
		return entity.Order{}, err
	}

	// Count before insert so concurrent creations in the same area never
	// share a sequence number.
	number := s.nextOrderNumber(draft.Area)
	order := entity.Order{
		ID:          uuid.NewString(),
		OrderNumber: number,
		Status:      draft.Status,
		StartDate:   timegrid.Day(draft.StartDate),
		EndDate:     timegrid.Day(draft.EndDate),
		Duration:    timegrid.Duration(draft.StartDate, draft.EndDate),
		Area:        draft.Area,
		Assignee:    draft.Assignee,
		Progress:    clampProgress(draft.Progress),
		ColorCode:   entity.ColorForStatus(draft.Status),
	}
	s.state.Orders = append(s.state.Orders, order)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.storeInCache(ctx, order)
	s.publishEvent(ctx, EventOrderCreated, order)
	s.notify(snapshot)
	return order, nil
}

// UpdateOrder merges the patch into an existing order. A status change
// recomputes the color code; a date change recomputes the duration. Conflict
// validation is not re-run on update.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BoardService.UpdateOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if patch.Status != nil && !patch.Status.Valid() {
		return entity.Order{}, errorbank.BadRequest(fmt.Sprintf("unknown status %q", *patch.Status), errorbank.WithField("status"))
	}

	s.mu.Lock()
	idx := -1
	for i, o := range s.state.Orders {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		span.SetStatus(codes.Error, "not found")
		return entity.Order{}, errorbank.NotFound("order not found", errorbank.WithCode(CodeOrderNotFound))
	}

	order := s.state.Orders[idx]
	if patch.Status != nil {
		order.Status = *patch.Status
		order.ColorCode = entity.ColorForStatus(order.Status)
	}
	if patch.StartDate != nil {
		order.StartDate = timegrid.Day(*patch.StartDate)
	}
	if patch.EndDate != nil {
		order.EndDate = timegrid.Day(*patch.EndDate)
	}
	if patch.StartDate != nil || patch.EndDate != nil {
		order.Duration = timegrid.Duration(order.StartDate, order.EndDate)
	}
	if patch.Area != nil {
		order.Area = *patch.Area
	}
	if patch.Assignee != nil {
		order.Assignee = *patch.Assignee
	}
	if patch.Progress != nil {
		order.Progress = clampProgress(*patch.Progress)
	}
	s.state.Orders[idx] = order
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.storeInCache(ctx, order)
	s.publishEvent(ctx, EventOrderUpdated, order)
	s.notify(snapshot)
	return order, nil
}

// DeleteOrder removes the order if present; deleting an unknown id is a
// silent no-op. A selection pointing at the removed order is cleared.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "BoardService.DeleteOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.mu.Lock()
	idx := -1
	for i, o := range s.state.Orders {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.state.Orders[idx]
	s.state.Orders = append(s.state.Orders[:idx], s.state.Orders[idx+1:]...)
	if s.state.SelectedOrderID != nil && *s.state.SelectedOrderID == id {
		s.state.SelectedOrderID = nil
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.dropFromCache(ctx, id)
	s.publishEvent(ctx, EventOrderDeleted, removed)
	s.notify(snapshot)
	return nil
}

// SelectOrder sets the transient selection. Selecting the already-selected
// id clears it, which drives single-item expansion in the list view.
func (s *Service) SelectOrder(ctx context.Context, id *string) {
	s.mu.Lock()
	if id == nil || (s.state.SelectedOrderID != nil && *s.state.SelectedOrderID == *id) {
		s.state.SelectedOrderID = nil
	} else {
		selected := *id
		s.state.SelectedOrderID = &selected
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.notify(snapshot)
}

// SetStatusFilter restricts the derived views to one status; nil clears it.
func (s *Service) SetStatusFilter(ctx context.Context, status *entity.Status) error {
	if status != nil && !status.Valid() {
		return errorbank.BadRequest(fmt.Sprintf("unknown status %q", *status), errorbank.WithField("status"))
	}

	s.mu.Lock()
	if status == nil {
		s.state.StatusFilter = nil
	} else {
		f := *status
		s.state.StatusFilter = &f
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.notify(snapshot)
	return nil
}

// SetViewMode switches between monthly and weekly calendar rendering.
func (s *Service) SetViewMode(ctx context.Context, mode entity.ViewMode) error {
	if !mode.Valid() {
		return errorbank.BadRequest(fmt.Sprintf("unknown view mode %q", mode), errorbank.WithField("viewMode"))
	}

	s.mu.Lock()
	s.state.ViewMode = mode
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.notify(snapshot)
	return nil
}

// SetCurrentDate moves the calendar anchor date.
func (s *Service) SetCurrentDate(ctx context.Context, date time.Time) {
	s.mu.Lock()
	s.state.CurrentDate = timegrid.Day(date)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.notify(snapshot)
}

// nextOrderNumber builds `#<N><AreaInitial> <8-char code>` where N is one
// more than the count of same-area orders currently in the collection. The
// number is fixed at creation; later deletions never renumber.
// Caller holds the state lock.
func (s *Service) nextOrderNumber(area string) string {
	count := 0
	for _, o := range s.state.Orders {
		if o.Area == area {
			count++
		}
	}
	initial := strings.ToUpper(string([]rune(area)[0]))
	return fmt.Sprintf("#%d%s %s", count+1, initial, randomOrderCode())
}

const orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomOrderCode returns the 8-character alphanumeric suffix of an order
// number.
func randomOrderCode() string {
	max := big.NewInt(int64(len(orderCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to a fixed character rather than aborting creation.
			b.WriteByte('0')
			continue
		}
		b.WriteByte(orderCodeAlphabet[n.Int64()])
	}
	return b.String()
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// persist writes the snapshot to durable storage. Failures are logged and
// never roll back the in-memory mutation; memory stays the source of truth
// for the session.
func (s *Service) persist(ctx context.Context, snapshot entity.BoardState) {
	if err := s.repo.Save(ctx, snapshot); err != nil {
		if s.logger != nil {
			s.logger.Warn("board state persist failed", zap.Error(err))
		}
	}
}

// notify delivers the snapshot to every subscriber.
func (s *Service) notify(snapshot entity.BoardState) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func (s *Service) publishEvent(ctx context.Context, typ EventType, order entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{Type: typ, Order: order, At: s.now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%s", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("type", string(typ)), zap.Error(err))
		}
	}
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) getFromCache(ctx context.Context, id string) (entity.Order, error) {
	if s.cache == nil {
		return entity.Order{}, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return entity.Order{}, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return entity.Order{}, err
	}
	return order, nil
}

func (s *Service) storeInCache(ctx context.Context, order entity.Order) {
	if s.cache == nil {
		return
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL); err != nil {
		if s.logger != nil {
			s.logger.Warn("order cache write failed", zap.String("id", order.ID), zap.Error(err))
		}
	}
}

func (s *Service) dropFromCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		if s.logger != nil {
			s.logger.Warn("order cache delete failed", zap.String("id", id), zap.Error(err))
		}
	}
}

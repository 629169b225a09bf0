package board

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/planboard/internal/cache"
	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/internal/messaging"
	"github.com/Additional-Code/planboard/internal/repository/state"
	"github.com/Additional-Code/planboard/pkg/errorbank"
)

var today = time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeStore struct {
	saved   []entity.BoardState
	saveErr error
	loaded  *entity.BoardState
	loadErr error
}

func (f *fakeStore) Load(context.Context) (entity.BoardState, error) {
	if f.loadErr != nil {
		return entity.BoardState{}, f.loadErr
	}
	if f.loaded != nil {
		return *f.loaded, nil
	}
	return entity.BoardState{}, errors.New("no snapshot")
}

func (f *fakeStore) Save(_ context.Context, snapshot entity.BoardState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, snapshot)
	return nil
}

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := f.entries[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

type testEnv struct {
	svc   *Service
	store *fakeStore
	cache *fakeCache
	pub   *recordingClient
}

// recordingClient satisfies messaging.Client and captures published events.
type recordingClient struct {
	events [][]byte
}

func (r *recordingClient) Publish(_ context.Context, _ []byte, value []byte) error {
	r.events = append(r.events, value)
	return nil
}

func (r *recordingClient) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *recordingClient) Topic() string { return "board.order.events" }

func newTestService(t *testing.T) *testEnv {
	t.Helper()
	store := &fakeStore{}
	c := newFakeCache()
	pub := &recordingClient{}

	cfg := config.Config{
		Cache: config.Cache{DefaultTTL: time.Minute},
		Messaging: config.Messaging{
			Enabled: true,
			Kafka:   config.Kafka{Topic: "board.order.events"},
		},
		Board: config.Board{StateRecord: "production-orders"},
	}

	svc := NewService(Params{
		Repository: store,
		Cache:      c,
		Config:     cfg,
		Logger:     zap.NewNop(),
		Publisher:  pub,
	})
	svc.now = func() time.Time { return today }
	return &testEnv{svc: svc, store: store, cache: c, pub: pub}
}

func draft(area string, start, end time.Time) OrderDraft {
	return OrderDraft{
		Status:    entity.StatusPlanned,
		StartDate: start,
		EndDate:   end,
		Area:      area,
		Assignee:  "Jane Smith",
		Progress:  0,
	}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code()
}

func TestCreateOrderGeneratesIdentifiers(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Production Line A", date(2025, time.August, 4), date(2025, time.August, 7)))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Regexp(t, regexp.MustCompile(`^#1P [A-Z0-9]{8}$`), order.OrderNumber)
	assert.Equal(t, 4, order.Duration)
	assert.Equal(t, "#F59E0B", order.ColorCode)
}

func TestCreateOrderSequentialPerAreaNumbering(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateOrder(ctx, draft("Production Line A", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)
	_, err = env.svc.CreateOrder(ctx, draft("Production Line A", date(2025, time.August, 6), date(2025, time.August, 7)))
	require.NoError(t, err)
	// A different area runs its own sequence.
	other, err := env.svc.CreateOrder(ctx, draft("Shipping & Logistics", date(2025, time.August, 4), date(2025, time.August, 7)))
	require.NoError(t, err)
	assert.Regexp(t, `^#1S [A-Z0-9]{8}$`, other.OrderNumber)

	third, err := env.svc.CreateOrder(ctx, draft("Production Line A", date(2025, time.August, 8), date(2025, time.August, 9)))
	require.NoError(t, err)
	assert.Regexp(t, `^#3P [A-Z0-9]{8}$`, third.OrderNumber)
}

func TestOrderNumberImmutableAfterDeletions(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	first, err := env.svc.CreateOrder(ctx, draft("Packaging Department", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)
	second, err := env.svc.CreateOrder(ctx, draft("Packaging Department", date(2025, time.August, 6), date(2025, time.August, 7)))
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteOrder(ctx, first.ID))

	kept, ok := env.svc.Order(second.ID)
	require.True(t, ok)
	assert.Equal(t, second.OrderNumber, kept.OrderNumber, "no renumbering on delete")
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	t.Run("missing area", func(t *testing.T) {
		_, err := env.svc.CreateOrder(ctx, draft("", date(2025, time.August, 4), date(2025, time.August, 5)))
		assert.Equal(t, CodeMissingField, appCode(t, err))
	})

	t.Run("missing assignee", func(t *testing.T) {
		d := draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5))
		d.Assignee = ""
		_, err := env.svc.CreateOrder(ctx, d)
		assert.Equal(t, CodeMissingField, appCode(t, err))
	})

	t.Run("inverted dates", func(t *testing.T) {
		_, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 5), date(2025, time.August, 4)))
		assert.Equal(t, CodeDateOrderInvalid, appCode(t, err))
	})

	t.Run("start in the past", func(t *testing.T) {
		_, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.July, 31), date(2025, time.August, 4)))
		assert.Equal(t, CodeDateInPast, appCode(t, err))
	})

	t.Run("failed create mutates nothing", func(t *testing.T) {
		assert.Empty(t, env.svc.State().Orders)
		assert.Empty(t, env.store.saved)
	})
}

func TestAreaConflictDetection(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateOrder(ctx, draft("Quality Control", date(2025, time.August, 10), date(2025, time.August, 12)))
	require.NoError(t, err)

	_, err = env.svc.CreateOrder(ctx, draft("Quality Control", date(2025, time.August, 5), date(2025, time.August, 17)))
	require.Error(t, err)
	assert.Equal(t, CodeAreaConflict, appCode(t, err))

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Quality Control", appErr.Details()["area"])

	// Same dates in a different area are fine; areas are independent
	// resources.
	_, err = env.svc.CreateOrder(ctx, draft("Shipping & Logistics", date(2025, time.August, 5), date(2025, time.August, 17)))
	assert.NoError(t, err)
}

func TestConflictBoundariesAreInclusive(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateOrder(ctx, draft("Assembly Station 1", date(2025, time.August, 10), date(2025, time.August, 12)))
	require.NoError(t, err)

	// Touching the existing end day conflicts.
	_, err = env.svc.CreateOrder(ctx, draft("Assembly Station 1", date(2025, time.August, 12), date(2025, time.August, 14)))
	assert.Equal(t, CodeAreaConflict, appCode(t, err))

	// The day after does not.
	_, err = env.svc.CreateOrder(ctx, draft("Assembly Station 1", date(2025, time.August, 13), date(2025, time.August, 14)))
	assert.NoError(t, err)
}

func TestOverlapLaw(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", date(2025, 8, 1), date(2025, 8, 3), date(2025, 8, 4), date(2025, 8, 6), false},
		{"touching endpoints", date(2025, 8, 1), date(2025, 8, 4), date(2025, 8, 4), date(2025, 8, 6), true},
		{"contained", date(2025, 8, 1), date(2025, 8, 10), date(2025, 8, 4), date(2025, 8, 6), true},
		{"containing", date(2025, 8, 4), date(2025, 8, 6), date(2025, 8, 1), date(2025, 8, 10), true},
		{"partial", date(2025, 8, 1), date(2025, 8, 5), date(2025, 8, 4), date(2025, 8, 8), true},
		{"disjoint after", date(2025, 8, 8), date(2025, 8, 9), date(2025, 8, 1), date(2025, 8, 6), false},
	}
	for _, tc := range cases {
		got := overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
		want := !tc.aStart.After(tc.bEnd) && !tc.bStart.After(tc.aEnd)
		assert.Equal(t, want, got, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
		// Symmetry.
		assert.Equal(t, got, overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd), tc.name)
	}
}

func TestUpdateOrderCascades(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Final Inspection", date(2025, time.August, 4), date(2025, time.August, 7)))
	require.NoError(t, err)

	t.Run("status change recomputes color, keeps duration", func(t *testing.T) {
		completed := entity.StatusCompleted
		updated, err := env.svc.UpdateOrder(ctx, order.ID, OrderPatch{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, "#10B981", updated.ColorCode)
		assert.Equal(t, 4, updated.Duration)
	})

	t.Run("date change recomputes duration, keeps color", func(t *testing.T) {
		later := date(2025, time.August, 10)
		updated, err := env.svc.UpdateOrder(ctx, order.ID, OrderPatch{EndDate: &later})
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Duration)
		assert.Equal(t, "#10B981", updated.ColorCode)
	})

	t.Run("order number never changes", func(t *testing.T) {
		got, ok := env.svc.Order(order.ID)
		require.True(t, ok)
		assert.Equal(t, order.OrderNumber, got.OrderNumber)
	})
}

func TestUpdateOrderUnknownID(t *testing.T) {
	env := newTestService(t)
	_, err := env.svc.UpdateOrder(context.Background(), "nope", OrderPatch{})
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
}

func TestUpdateSkipsConflictValidation(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateOrder(ctx, draft("Production Line B", date(2025, time.August, 4), date(2025, time.August, 6)))
	require.NoError(t, err)
	second, err := env.svc.CreateOrder(ctx, draft("Production Line B", date(2025, time.August, 10), date(2025, time.August, 12)))
	require.NoError(t, err)

	// Moving the second order onto the first succeeds: updates are not
	// re-validated against the collection.
	start := date(2025, time.August, 5)
	_, err = env.svc.UpdateOrder(ctx, second.ID, OrderPatch{StartDate: &start})
	assert.NoError(t, err)
}

func TestDeleteOrderIdempotent(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)

	before := env.svc.State().Orders
	require.NoError(t, env.svc.DeleteOrder(ctx, "does-not-exist"))
	assert.Equal(t, before, env.svc.State().Orders, "deleting an unknown id changes nothing")

	require.NoError(t, env.svc.DeleteOrder(ctx, order.ID))
	assert.Empty(t, env.svc.State().Orders)
	require.NoError(t, env.svc.DeleteOrder(ctx, order.ID))
}

func TestDeleteClearsSelection(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)

	env.svc.SelectOrder(ctx, &order.ID)
	require.NotNil(t, env.svc.State().SelectedOrderID)

	require.NoError(t, env.svc.DeleteOrder(ctx, order.ID))
	assert.Nil(t, env.svc.State().SelectedOrderID)
}

func TestSelectOrderToggles(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	id := "ord-1"

	env.svc.SelectOrder(ctx, &id)
	require.NotNil(t, env.svc.State().SelectedOrderID)
	assert.Equal(t, id, *env.svc.State().SelectedOrderID)

	// Selecting the same id again clears it.
	env.svc.SelectOrder(ctx, &id)
	assert.Nil(t, env.svc.State().SelectedOrderID)

	env.svc.SelectOrder(ctx, &id)
	env.svc.SelectOrder(ctx, nil)
	assert.Nil(t, env.svc.State().SelectedOrderID)
}

func TestTransientSetters(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	require.NoError(t, env.svc.SetViewMode(ctx, entity.ViewWeekly))
	assert.Equal(t, entity.ViewWeekly, env.svc.State().ViewMode)
	assert.Error(t, env.svc.SetViewMode(ctx, "quarterly"))

	pending := entity.StatusPending
	require.NoError(t, env.svc.SetStatusFilter(ctx, &pending))
	require.NotNil(t, env.svc.State().StatusFilter)
	bad := entity.Status("bogus")
	assert.Error(t, env.svc.SetStatusFilter(ctx, &bad))
	require.NoError(t, env.svc.SetStatusFilter(ctx, nil))
	assert.Nil(t, env.svc.State().StatusFilter)

	env.svc.SetCurrentDate(ctx, time.Date(2025, time.September, 3, 15, 4, 5, 0, time.UTC))
	assert.True(t, env.svc.State().CurrentDate.Equal(date(2025, time.September, 3)), "anchor date is day-normalized")
}

func TestObserversNotifiedAfterMutations(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	var notified []int
	env.svc.Subscribe(func(s entity.BoardState) {
		notified = append(notified, len(s.Orders))
	})

	_, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)
	require.Equal(t, []int{1}, notified)

	// A failed create notifies nobody.
	_, err = env.svc.CreateOrder(ctx, draft("", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.Error(t, err)
	assert.Equal(t, []int{1}, notified)
}

func TestMutationsPublishEvents(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)
	completed := entity.StatusCompleted
	_, err = env.svc.UpdateOrder(ctx, order.ID, OrderPatch{Status: &completed})
	require.NoError(t, err)
	require.NoError(t, env.svc.DeleteOrder(ctx, order.ID))

	require.Len(t, env.pub.events, 3)
	var types []EventType
	for _, raw := range env.pub.events {
		var ev OrderEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		types = append(types, ev.Type)
		assert.Equal(t, order.ID, ev.Order.ID)
	}
	assert.Equal(t, []EventType{EventOrderCreated, EventOrderUpdated, EventOrderDeleted}, types)
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	env := newTestService(t)
	env.store.saveErr = errors.New("disk full")
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err, "in-memory state stays the source of truth")

	got, ok := env.svc.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, order.ID, got.ID)
}

func TestGetOrderReadsThroughCache(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	order, err := env.svc.CreateOrder(ctx, draft("Raw Materials", date(2025, time.August, 4), date(2025, time.August, 5)))
	require.NoError(t, err)

	_, cached := env.cache.entries["orders:"+order.ID]
	assert.True(t, cached, "create mirrors the order into cache")

	got, err := env.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	_, err = env.svc.GetOrder(ctx, "missing")
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
}

func TestLoadReplacesState(t *testing.T) {
	env := newTestService(t)
	snapshot := entity.NewBoardState(today)
	snapshot.Orders = []entity.Order{{ID: "ord-1", Area: "Quality Control", Status: entity.StatusPlanned}}
	env.store.loaded = &snapshot

	require.NoError(t, env.svc.Load(context.Background()))
	assert.Len(t, env.svc.State().Orders, 1)
}

func TestLoadToleratesMissingRecord(t *testing.T) {
	env := newTestService(t)
	env.store.loadErr = state.ErrNotFound

	require.NoError(t, env.svc.Load(context.Background()))
	assert.Empty(t, env.svc.State().Orders)
}

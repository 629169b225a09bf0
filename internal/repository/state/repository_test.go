package state

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/database"
	"github.com/Additional-Code/planboard/internal/entity"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planboard.db")
	sqldb, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec(`CREATE TABLE board_state (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP
	)`)
	require.NoError(t, err)

	cfg := config.Config{Board: config.Board{StateRecord: "production-orders"}}
	return NewRepository(&database.Connections{Writer: db, Reader: db}, cfg)
}

func TestLoadMissingRecord(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.August, 17, 0, 0, 0, 0, time.UTC)
	selected := "ord-1"
	filter := entity.StatusPlanned

	snapshot := entity.BoardState{
		Orders: []entity.Order{{
			ID:          selected,
			OrderNumber: "#1Q K7P2M9XC",
			Status:      entity.StatusPlanned,
			StartDate:   start,
			EndDate:     end,
			Duration:    13,
			Area:        "Quality Control",
			Assignee:    "Jane Smith",
			Progress:    40,
			ColorCode:   entity.ColorForStatus(entity.StatusPlanned),
		}},
		SelectedOrderID: &selected,
		CurrentDate:     start,
		ViewMode:        entity.ViewWeekly,
		StatusFilter:    &filter,
	}

	require.NoError(t, repo.Save(ctx, snapshot))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Orders, 1)

	got := loaded.Orders[0]
	assert.Equal(t, snapshot.Orders[0].ID, got.ID)
	assert.Equal(t, snapshot.Orders[0].OrderNumber, got.OrderNumber)
	assert.True(t, got.StartDate.Equal(start), "start date survives the round trip")
	assert.True(t, got.EndDate.Equal(end), "end date survives the round trip")
	assert.Equal(t, 13, got.Duration)

	require.NotNil(t, loaded.SelectedOrderID)
	assert.Equal(t, selected, *loaded.SelectedOrderID)
	require.NotNil(t, loaded.StatusFilter)
	assert.Equal(t, filter, *loaded.StatusFilter)
	assert.Equal(t, entity.ViewWeekly, loaded.ViewMode)
	assert.True(t, loaded.CurrentDate.Equal(start))
}

func TestSaveOverwritesNamedRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entity.NewBoardState(time.Now().UTC())))

	second := entity.NewBoardState(time.Now().UTC())
	second.ViewMode = entity.ViewWeekly
	require.NoError(t, repo.Save(ctx, second))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.ViewWeekly, loaded.ViewMode)
	assert.Empty(t, loaded.Orders)
}

func TestLoadNormalizesNilOrders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entity.BoardState{CurrentDate: time.Now().UTC(), ViewMode: entity.ViewMonthly}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Orders)
}

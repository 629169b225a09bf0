package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/database"
	"github.com/Additional-Code/planboard/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/planboard/repository/state")

// ErrNotFound is returned when the named state record does not exist yet.
var ErrNotFound = errors.New("board state not found")

// record is the single durable row holding the serialized board snapshot.
type record struct {
	bun.BaseModel `bun:"table:board_state"`

	Name      string    `bun:"name,pk"`
	Payload   []byte    `bun:"payload,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// Repository reads and writes the board snapshot as one named JSON record.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	name   string
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections, cfg config.Config) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		name:   cfg.Board.StateRecord,
	}
}

// Record returns the configured record name.
func (r *Repository) Record() string {
	return r.name
}

// Load fetches and rehydrates the snapshot. Date-typed fields come back from
// their ISO-8601 string form via encoding/json.
func (r *Repository) Load(ctx context.Context) (entity.BoardState, error) {
	ctx, span := repoTracer.Start(ctx, "StateRepository.Load", trace.WithAttributes(attribute.String("state.record", r.name)))
	defer span.End()

	rec := new(record)
	err := r.reader.NewSelect().Model(rec).Where("name = ?", r.name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return entity.BoardState{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return entity.BoardState{}, err
	}

	var snapshot entity.BoardState
	if err := json.Unmarshal(rec.Payload, &snapshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return entity.BoardState{}, err
	}
	if snapshot.Orders == nil {
		snapshot.Orders = []entity.Order{}
	}
	return snapshot, nil
}

// Save serializes the snapshot and upserts the named record.
func (r *Repository) Save(ctx context.Context, snapshot entity.BoardState) error {
	ctx, span := repoTracer.Start(ctx, "StateRepository.Save", trace.WithAttributes(
		attribute.String("state.record", r.name),
		attribute.Int("state.orders", len(snapshot.Orders)),
	))
	defer span.End()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return err
	}

	rec := &record{
		Name:      r.name,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = r.writer.NewInsert().Model(rec).
		On("CONFLICT (name) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
	}
	return err
}

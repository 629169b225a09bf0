package seeder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/entity"
	"github.com/Additional-Code/planboard/internal/service/board"
)

// Seeder populates the board with demo orders for local/dev setups.
// Orders are created through the board service so numbering, colors
// and persistence behave exactly as they do in production.
type Seeder struct {
	svc    *board.Service
	cfg    config.Board
	logger *zap.Logger
}

// New constructs a Seeder on top of the board service.
func New(svc *board.Service, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{svc: svc, cfg: cfg.Board, logger: logger}
}

type sample struct {
	area     string
	assignee string
	status   entity.Status
	start    int // day offset from today
	length   int // days, inclusive
	progress int
}

// Orders seeds a demo schedule. With BOARD_SEED_ON_EMPTY set (the
// default) the seeder is a no-op when the board already holds orders,
// so it stays safe to run on every start.
func (s *Seeder) Orders(ctx context.Context) error {
	if s.cfg.SeedOnEmpty && len(s.svc.State().Orders) > 0 {
		if s.logger != nil {
			s.logger.Info("board already populated, skipping seed")
		}
		return nil
	}

	samples := []sample{
		{area: "Production Line A", assignee: "John Doe", status: entity.StatusInProgress, start: 0, length: 5, progress: 40},
		{area: "Production Line B", assignee: "Jane Smith", status: entity.StatusPlanned, start: 3, length: 4, progress: 0},
		{area: "Production Line A", assignee: "Mike Johnson", status: entity.StatusPending, start: 7, length: 3, progress: 0},
		{area: "Quality Control", assignee: "Sarah Wilson", status: entity.StatusApproved, start: 1, length: 2, progress: 100},
		{area: "Packaging Department", assignee: "John Doe", status: entity.StatusPlanned, start: 5, length: 6, progress: 0},
		{area: "Shipping & Logistics", assignee: "Jane Smith", status: entity.StatusInProgress, start: 2, length: 3, progress: 65},
		{area: "Assembly Station 1", assignee: "Mike Johnson", status: entity.StatusPlanned, start: 10, length: 5, progress: 0},
		{area: "Final Inspection", assignee: "Sarah Wilson", status: entity.StatusPending, start: 14, length: 1, progress: 0},
	}

	today := time.Now().UTC()
	created := 0
	for _, smp := range samples {
		start := today.AddDate(0, 0, smp.start)
		end := start.AddDate(0, 0, smp.length-1)

		_, err := s.svc.CreateOrder(ctx, board.OrderDraft{
			Status:    smp.status,
			StartDate: start,
			EndDate:   end,
			Area:      smp.area,
			Assignee:  smp.assignee,
			Progress:  smp.progress,
		})
		if err != nil {
			return err
		}
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded board", zap.Int("orders", created))
	}
	return nil
}

package board

import (
	"context"

	"go.uber.org/fx"

	"github.com/Additional-Code/planboard/internal/repository/state"
)

// Module provides the board service to Fx and loads the persisted snapshot
// on startup.
var Module = fx.Options(
	fx.Provide(func(r *state.Repository) Store { return r }),
	fx.Provide(NewService),
	fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.Load(ctx)
			},
		})
	}),
)

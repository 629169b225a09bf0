package state

import "go.uber.org/fx"

// Module provides the state repository to Fx.
var Module = fx.Provide(NewRepository)

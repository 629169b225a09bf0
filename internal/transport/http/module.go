package http

import (
	"go.uber.org/fx"

	boardtransport "github.com/Additional-Code/planboard/internal/transport/http/board"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	boardtransport.Module,
)

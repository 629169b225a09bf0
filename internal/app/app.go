package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/planboard/internal/cache"
	"github.com/Additional-Code/planboard/internal/config"
	"github.com/Additional-Code/planboard/internal/database"
	"github.com/Additional-Code/planboard/internal/logger"
	"github.com/Additional-Code/planboard/internal/messaging"
	"github.com/Additional-Code/planboard/internal/observability"
	repositorystate "github.com/Additional-Code/planboard/internal/repository/state"
	grpcserver "github.com/Additional-Code/planboard/internal/server/grpc"
	httpserver "github.com/Additional-Code/planboard/internal/server/http"
	serviceboard "github.com/Additional-Code/planboard/internal/service/board"
	transporthttp "github.com/Additional-Code/planboard/internal/transport/http"
	"github.com/Additional-Code/planboard/internal/worker"
	workerboard "github.com/Additional-Code/planboard/internal/worker/board"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorystate.Module,
	serviceboard.Module,
)

// HTTP wires the HTTP and gRPC surfaces on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerboard.Module,
)

// Module is the default application wiring.
var Module = HTTP

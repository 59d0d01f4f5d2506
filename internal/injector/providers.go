package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/skilltree/internal/config"
	"github.com/zeusync/skilltree/internal/core/behavior"
	"github.com/zeusync/skilltree/internal/core/events/bus"
	"github.com/zeusync/skilltree/internal/core/ir/store"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/skill"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
	"github.com/zeusync/skilltree/internal/server"
	"github.com/zeusync/skilltree/internal/server/debugws"
)

var CoreSet = wire.NewSet(
	ProvideStore,
	ProvideWorld,
	wire.Bind(new(physics.World), new(*physics.MemoryWorld)),
	ProvideRegistry,
	ProvideBus,
	ProvideFactory,
	ProvideScheduler,
	ProvideCatalog,
	ProvideHub,
	ProvideSpawner,
)

var ServerSet = wire.NewSet(
	ProvideLogger,
	CoreSet,
	wire.Struct(new(server.Components), "*"),
	server.New,
)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.New(cfg.Logger())
}

func ProvideStore(logger log.Log) *store.Store {
	return store.New(logger)
}

func ProvideWorld() *physics.MemoryWorld {
	return physics.NewMemoryWorld()
}

func ProvideRegistry(world physics.World) *models.Registry {
	return models.NewRegistry(world)
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideFactory(st *store.Store, logger log.Log) *behavior.Factory {
	return behavior.NewFactory(st, behavior.DefaultActions(), logger)
}

func ProvideScheduler(logger log.Log) *behavior.Scheduler {
	return behavior.NewScheduler(logger)
}

func ProvideCatalog(units *models.Registry, world physics.World) *skill.Catalog {
	return skill.NewCatalog(units, world)
}

func ProvideHub(logger log.Log) *debugws.Hub {
	return debugws.NewHub(logger)
}

func ProvideSpawner(
	cfg *config.Config,
	units *models.Registry,
	catalog *skill.Catalog,
	world physics.World,
	factory *behavior.Factory,
	scheduler *behavior.Scheduler,
	hub *debugws.Hub,
	logger log.Log,
) *skill.Handler {
	opts := []skill.Option{skill.WithLogger(logger)}
	if cfg.Debug.Enabled {
		opts = append(opts, skill.WithDebug(hub, cfg.Debug.TTL))
	}
	return skill.NewHandler(skill.Deps{
		Units:     units,
		Colliders: catalog,
		World:     world,
		Factory:   factory,
		Starter:   scheduler,
	}, opts...)
}

//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/skilltree/internal/config"
	"github.com/zeusync/skilltree/internal/server"
)

func InitializeServer(cfg *config.Config) *server.Server {
	wire.Build(ServerSet)
	return nil
}

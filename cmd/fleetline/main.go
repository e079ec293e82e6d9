package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tphona/fleetline/internal/clock"
	"github.com/tphona/fleetline/internal/config"
	"github.com/tphona/fleetline/internal/logger"
	"github.com/tphona/fleetline/internal/migration"
	"github.com/tphona/fleetline/internal/seed"
	"github.com/tphona/fleetline/internal/server"
	"github.com/tphona/fleetline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,

		fx.Invoke(seedDemo),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func seedDemo(cfg config.Config, gdb *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if !cfg.SeedDemo {
		return nil
	}
	if err := seed.EnsureDemoData(gdb, node); err != nil {
		return err
	}
	log.Info("demo data seeded")
	return nil
}

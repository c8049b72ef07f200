package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing"
	"github.com/smallbiznis/invoicer/internal/logger"
	"github.com/smallbiznis/invoicer/internal/pdfgen"
	"github.com/smallbiznis/invoicer/internal/seed"
	"github.com/smallbiznis/invoicer/internal/server"
	"github.com/smallbiznis/invoicer/internal/store"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		store.Module,

		// Functional domains
		invoicing.Module,
		pdfgen.Module,
		seed.Module,
		server.Module,
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

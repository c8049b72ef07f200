package seed

import (
	"context"

	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func seedOnStart(lc fx.Lifecycle, cfg config.Config, seeder *Seeder, log *zap.Logger) {
	if !cfg.SeedOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := seeder.Run(ctx); err != nil {
				log.Warn("could not seed development data", zap.Error(err))
			}
			return nil
		},
	})
}

var Module = fx.Module("seed",
	fx.Provide(New),
	fx.Invoke(seedOnStart),
)

package pdfgen

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

func defaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

var Module = fx.Module("pdfgen",
	fx.Provide(NewRenderer),
	fx.Provide(defaultMetrics),
	fx.Provide(NewPipeline),
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)

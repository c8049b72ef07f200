package pdfgen

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Worker drives the pipeline off the render queue. One message at a time;
// parallelism, if any, comes from running more workers.
type Worker struct {
	queue     store.Queue
	pipeline  *Pipeline
	log       *zap.Logger
	queueName string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(queue store.Queue, pipeline *Pipeline, log *zap.Logger, cfg config.Config) *Worker {
	queueName := cfg.RenderQueueName
	if queueName == "" {
		queueName = domain.RenderQueue
	}
	return &Worker{
		queue:     queue,
		pipeline:  pipeline,
		log:       log.Named("pdfgen.worker"),
		queueName: queueName,
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		err := w.queue.Consume(ctx, w.queueName, w.pipeline.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.log.Error("consumer stopped", zap.Error(err))
		}
	}()
	w.log.Info("render worker started", zap.String("queue", w.queueName))
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerWorker(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return w.Stop(ctx)
		},
	})
}

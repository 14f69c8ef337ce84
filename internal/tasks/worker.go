package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// message is the part of jetstream.Msg the worker needs.
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Worker consumes tasks from the stream and runs them.
type Worker struct {
	js          jetstream.JetStream
	stream      string
	durable     string
	runner      *Runner
	logger      *slog.Logger
	concurrency int
}

// NewWorker returns a worker reading stream with a durable consumer.
func NewWorker(js jetstream.JetStream, stream string, runner *Runner, concurrency int, logger *slog.Logger) *Worker {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		js:          js,
		stream:      stream,
		durable:     stream + "_workers",
		runner:      runner,
		logger:      logger,
		concurrency: max(concurrency, 1),
	}
}

// Run consumes until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := EnsureStream(ctx, w.js, w.stream); err != nil {
		return err
	}

	consumer, err := w.js.CreateOrUpdateConsumer(ctx, w.stream, jetstream.ConsumerConfig{
		Durable:       w.durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       time.Minute,
		MaxDeliver:    5,
		MaxAckPending: w.concurrency,
		FilterSubject: subjectWildcard(w.stream),
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", w.durable, err)
	}

	msgs := make(chan message, w.concurrency)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case msgs <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	}, jetstream.PullMaxMessages(w.concurrency))
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.dispatch(ctx, msgs)
	}()

	w.logger.Info("task worker started", "stream", w.stream, "consumer", w.durable, "concurrency", w.concurrency)
	<-ctx.Done()
	cc.Stop()
	<-done
	w.logger.Info("task worker stopped", "stream", w.stream)

	return nil
}

// dispatch runs concurrency handlers over msgs until ctx is done or msgs is closed.
func (w *Worker) dispatch(ctx context.Context, msgs <-chan message) {
	var wg sync.WaitGroup
	for range w.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						return
					}
					w.handle(ctx, msg)
				}
			}
		}()
	}
	wg.Wait()
}

func (w *Worker) handle(ctx context.Context, msg message) {
	var task Task
	if err := json.Unmarshal(msg.Data(), &task); err != nil {
		w.logger.Error("dropping undecodable task", "error", err)
		_ = msg.Term()
		return
	}

	start := time.Now()
	if err := w.runner.Run(ctx, &task); err != nil {
		w.logger.Error("task failed", "task", task.Name, "id", task.ID, "addon_ids", task.AddonIDs, "error", err)
		if errors.Is(err, ErrUnknownTask) {
			_ = msg.Term()
		} else {
			_ = msg.Nak()
		}
		return
	}

	w.logger.Info("task done", "task", task.Name, "id", task.ID, "addons", len(task.AddonIDs), "duration", time.Since(start))
	_ = msg.Ack()
}

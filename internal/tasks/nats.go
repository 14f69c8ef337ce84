package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// jetStreamNew allows test injection
var jetStreamNew = jetstream.New

// DefaultStream is the JetStream stream tasks are published to.
const DefaultStream = "TASKS"

// Connect dials the NATS server at url, retrying on reconnects.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("amo-catalog"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// EnsureStream creates or updates the task stream. Tasks are kept until a
// worker acknowledges them.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{subjectWildcard(stream)},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", stream, err)
	}
	return nil
}

// NATSQueue publishes tasks to a JetStream stream.
type NATSQueue struct {
	js     jetstream.JetStream
	stream string
}

// NewNATSQueue wraps nc and makes sure the stream exists.
func NewNATSQueue(ctx context.Context, nc *nats.Conn, stream string) (*NATSQueue, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	js, err := jetStreamNew(nc)
	if err != nil {
		return nil, err
	}
	return NewNATSQueueFromJS(ctx, js, stream)
}

// NewNATSQueueFromJS builds a queue on an existing JetStream handle.
func NewNATSQueueFromJS(ctx context.Context, js jetstream.JetStream, stream string) (*NATSQueue, error) {
	if stream == "" {
		stream = DefaultStream
	}
	if err := EnsureStream(ctx, js, stream); err != nil {
		return nil, err
	}
	return &NATSQueue{js: js, stream: stream}, nil
}

// Enqueue publishes the task on "<stream>.<task name>". The task id is used as
// the message id so a retried publish is deduplicated by the server.
func (q *NATSQueue) Enqueue(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	_, err = q.js.Publish(ctx, subject(q.stream, task.Name), data,
		jetstream.WithExpectStream(q.stream),
		jetstream.WithMsgID(task.ID),
		jetstream.WithRetryAttempts(3),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", task.Name, err)
	}
	return nil
}

func subject(stream, name string) string {
	return stream + "." + name
}

func subjectWildcard(stream string) string {
	return stream + ".>"
}

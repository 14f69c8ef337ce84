package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	tasks []*Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task *Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func TestIndexAddonsEnqueues(t *testing.T) {
	q := &recordingQueue{}

	require.NoError(t, IndexAddons(context.Background(), q, []uint64{3, 1}))
	require.NoError(t, UnindexAddons(context.Background(), q, []uint64{9}))

	require.Len(t, q.tasks, 2)
	assert.Equal(t, TaskIndexAddons, q.tasks[0].Name)
	assert.Equal(t, []uint64{3, 1}, q.tasks[0].AddonIDs)
	assert.NotEmpty(t, q.tasks[0].ID)
	assert.False(t, q.tasks[0].EnqueuedAt.IsZero())
	assert.Equal(t, TaskUnindexAddons, q.tasks[1].Name)
}

func TestIndexAddonsEmptyIsNoop(t *testing.T) {
	q := &recordingQueue{}
	require.NoError(t, IndexAddons(context.Background(), q, nil))
	assert.Empty(t, q.tasks)
}

func TestRunner(t *testing.T) {
	runner := NewRunner()
	var got *Task
	runner.Register("echo", func(_ context.Context, task *Task) error {
		got = task
		return nil
	})

	task := NewTask("echo", []uint64{1})
	require.NoError(t, runner.Run(context.Background(), task))
	assert.Same(t, task, got)

	err := runner.Run(context.Background(), NewTask("missing", nil))
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestEagerQueuePropagatesErrors(t *testing.T) {
	runner := NewRunner()
	boom := errors.New("boom")
	runner.Register(TaskIndexAddons, func(context.Context, *Task) error { return boom })

	q := NewEagerQueue(runner, nil)
	err := IndexAddons(context.Background(), q, []uint64{1})
	assert.ErrorIs(t, err, boom)
}

type fakeMessage struct {
	data                 []byte
	acked, naked, termed bool
}

func (m *fakeMessage) Data() []byte { return m.data }

func (m *fakeMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeMessage) Nak() error {
	m.naked = true
	return nil
}

func (m *fakeMessage) Term() error {
	m.termed = true
	return nil
}

func encodedTask(t *testing.T, task *Task) []byte {
	b, err := json.Marshal(task)
	require.NoError(t, err)
	return b
}

func TestWorkerHandle(t *testing.T) {
	runner := NewRunner()
	var ran []uint64
	runner.Register(TaskIndexAddons, func(_ context.Context, task *Task) error {
		ran = append(ran, task.AddonIDs...)
		return nil
	})
	runner.Register("flaky", func(context.Context, *Task) error { return errors.New("try again") })

	w := NewWorker(nil, "", runner, 0, nil)
	assert.Equal(t, DefaultStream+"_workers", w.durable)
	assert.Equal(t, 1, w.concurrency)

	ok := &fakeMessage{data: encodedTask(t, NewTask(TaskIndexAddons, []uint64{4, 5}))}
	w.handle(context.Background(), ok)
	assert.True(t, ok.acked)
	assert.Equal(t, []uint64{4, 5}, ran)

	failing := &fakeMessage{data: encodedTask(t, NewTask("flaky", nil))}
	w.handle(context.Background(), failing)
	assert.True(t, failing.naked)
	assert.False(t, failing.acked)

	unknown := &fakeMessage{data: encodedTask(t, NewTask("nope", nil))}
	w.handle(context.Background(), unknown)
	assert.True(t, unknown.termed)

	garbage := &fakeMessage{data: []byte("{not json")}
	w.handle(context.Background(), garbage)
	assert.True(t, garbage.termed)
}

func TestWorkerDispatchRunsTasksInParallel(t *testing.T) {
	started := make(chan uint64, 2)
	release := make(chan struct{})
	runner := NewRunner()
	runner.Register(TaskIndexAddons, func(_ context.Context, task *Task) error {
		started <- task.AddonIDs[0]
		<-release
		return nil
	})
	w := NewWorker(nil, "", runner, 2, nil)

	first := &fakeMessage{data: encodedTask(t, NewTask(TaskIndexAddons, []uint64{1}))}
	second := &fakeMessage{data: encodedTask(t, NewTask(TaskIndexAddons, []uint64{2}))}
	msgs := make(chan message, 2)
	msgs <- first
	msgs <- second
	close(msgs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.dispatch(context.Background(), msgs)
	}()

	var seen []uint64
	for range 2 {
		select {
		case id := <-started:
			seen = append(seen, id)
		case <-time.After(5 * time.Second):
			close(release)
			t.Fatalf("only %d of 2 tasks running at once", len(seen))
		}
	}
	assert.ElementsMatch(t, []uint64{1, 2}, seen)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not return after msgs closed")
	}
	assert.True(t, first.acked)
	assert.True(t, second.acked)
}

func TestWorkerDispatchStopsOnCancel(t *testing.T) {
	w := NewWorker(nil, "", NewRunner(), 3, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.dispatch(ctx, make(chan message))
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not stop on cancel")
	}
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "TASKS.index_addons", subject("TASKS", TaskIndexAddons))
	assert.Equal(t, "TASKS.>", subjectWildcard("TASKS"))
}

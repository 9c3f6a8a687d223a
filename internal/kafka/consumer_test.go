package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		m := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) committedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, 0, len(f.committed))
	for _, m := range f.committed {
		out = append(out, m.Offset)
	}
	return out
}

func TestShardIsStable(t *testing.T) {
	for _, key := range []string{"ABC-1", "XYZ-9", ""} {
		first := Shard([]byte(key), 8)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 8)
		assert.Equal(t, first, Shard([]byte(key), 8))
	}
	assert.Equal(t, 0, Shard([]byte("ABC-1"), 1))
}

func TestConsumerKeepsPerKeyOrderAndSkipsCommitOnError(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{
		{Key: []byte("a"), Offset: 1, Value: []byte("a1")},
		{Key: []byte("b"), Offset: 2, Value: []byte("b1")},
		{Key: []byte("a"), Offset: 3, Value: []byte("a2")},
		{Key: []byte("b"), Offset: 4, Value: []byte("fail")},
		{Key: []byte("a"), Offset: 5, Value: []byte("a3")},
	}}
	c := newConsumer(r, 4, nil)
	c.backoff = 0

	var mu sync.Mutex
	seen := map[string][]string{}
	handled := 0
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		if string(m.Value) == "fail" {
			return errors.New("boom")
		}
		seen[string(m.Key)] = append(seen[string(m.Key)], string(m.Value))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 4+c.attempts
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(r.committedOffsets()) == 4 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a1", "a2", "a3"}, seen["a"])
	assert.Equal(t, []string{"b1"}, seen["b"])
	assert.ElementsMatch(t, []int64{1, 2, 3, 5}, r.committedOffsets())
	assert.True(t, r.closed)
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{{Key: []byte("a"), Offset: 7, Value: []byte("a1")}}}
	c := newConsumer(r, 1, nil)
	c.backoff = 0

	var mu sync.Mutex
	calls := 0
	h := func(context.Context, kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("redis timeout")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(r.committedOffsets()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{7}, r.committedOffsets())
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

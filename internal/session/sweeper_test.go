package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) SessionsExpired(ids []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, ids...)
}

func (n *recordingNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ids...)
}

func TestSweepOnce_NotifiesEvicted(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	n := &recordingNotifier{}
	s := NewSweeper(r, n, time.Second)

	id, _ := create(t, r, tokens)
	assert.Nil(t, s.SweepOnce())
	assert.Empty(t, n.seen())

	clock.Advance(ttl + time.Second)
	assert.Equal(t, []string{id}, s.SweepOnce())
	assert.Equal(t, []string{id}, n.seen())
}

func TestRun_StopsOnCancel(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	n := &recordingNotifier{}
	s := NewSweeper(r, n, 5*time.Millisecond)

	id, _ := create(t, r, tokens)
	clock.Advance(ttl + time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(n.seen()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{id}, n.seen())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	s := NewSweeper(r, nil, 0)
	assert.Equal(t, DefaultSweepInterval, s.interval)
}

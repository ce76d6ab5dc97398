package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestTracker_IdleInitially(t *testing.T) {
	tr := newTracker()
	require.True(t, isClosed(tr.idle()))
	require.Equal(t, 0, tr.len())
}

func TestTracker_AddDone(t *testing.T) {
	tr := newTracker()
	tr.add()
	tr.add()
	idle := tr.idle()
	require.False(t, isClosed(idle))
	require.Equal(t, 2, tr.len())

	tr.done()
	require.False(t, isClosed(idle))
	tr.done()
	require.True(t, isClosed(idle))

	// A new busy period gets a new channel; the old one stays closed.
	tr.add()
	require.False(t, isClosed(tr.idle()))
	require.True(t, isClosed(idle))
	tr.done()
}

func TestTracker_DoneWithoutAddPanics(t *testing.T) {
	tr := newTracker()
	require.Panics(t, func() { tr.done() })
}

func TestTracker_ConcurrentAddDone(t *testing.T) {
	tr := newTracker()
	tr.add() // hold
	idle := tr.idle()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.add()
			time.Sleep(time.Millisecond)
			tr.done()
		}()
	}
	wg.Wait()
	require.False(t, isClosed(idle))
	tr.done()

	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("tracker did not become idle")
	}
}

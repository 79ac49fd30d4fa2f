package reactor

import (
	"sync"
	"testing"
	"time"
)

// labelCommand is an opaque no-op command used for ordering checks
type labelCommand struct {
	label string
}

func (c *labelCommand) Execute(ISession) error { return nil }

// drainLabels polls n commands and returns their labels
func drainLabels(t *testing.T, q *commandDeque, n int) []string {
	t.Helper()
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		cmd, ok := q.Poll()
		if !ok {
			t.Fatalf("Deque closed after %d of %d commands", i, n)
		}
		labels = append(labels, cmd.(*labelCommand).label)
	}
	return labels
}

// TestDequeOrdering verifies FIFO order for back inserts and LIFO order for
// front inserts
func TestDequeOrdering(t *testing.T) {
	tests := map[string]struct {
		fill func(q *commandDeque)
		want []string
	}{
		"back inserts are FIFO": {
			fill: func(q *commandDeque) {
				q.PushBack(&labelCommand{label: "c1"})
				q.PushBack(&labelCommand{label: "c2"})
				q.PushBack(&labelCommand{label: "c3"})
			},
			want: []string{"c1", "c2", "c3"},
		},
		"front inserts are LIFO": {
			fill: func(q *commandDeque) {
				q.PushFront(&labelCommand{label: "p1"})
				q.PushFront(&labelCommand{label: "p2"})
			},
			want: []string{"p2", "p1"},
		},
		"front insert overtakes pending back inserts": {
			fill: func(q *commandDeque) {
				q.PushBack(&labelCommand{label: "c1"})
				q.PushBack(&labelCommand{label: "c2"})
				q.PushFront(&labelCommand{label: "p1"})
			},
			want: []string{"p1", "c1", "c2"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			q := newCommandDeque()
			tc.fill(q)

			got := drainLabels(t, q, len(tc.want))
			for i, want := range tc.want {
				if got[i] != want {
					t.Errorf("Position %d: expected %q, got %q", i, want, got[i])
				}
			}
		})
	}
}

// TestDequePollBlocks verifies that Poll blocks until a command arrives
func TestDequePollBlocks(t *testing.T) {
	q := newCommandDeque()

	got := make(chan ICommand, 1)
	go func() {
		cmd, ok := q.Poll()
		if !ok {
			t.Error("Poll returned closed before any command was pushed")
			return
		}
		got <- cmd
	}()

	// give the consumer a chance to block
	time.Sleep(10 * time.Millisecond)
	q.PushBack(&labelCommand{label: "late"})

	select {
	case cmd := <-got:
		if cmd.(*labelCommand).label != "late" {
			t.Errorf("Expected command %q, got %q", "late", cmd.(*labelCommand).label)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for blocked Poll to return")
	}
}

// TestDequeClose verifies the drain and discard close modes and that pushes
// after close are dropped
func TestDequeClose(t *testing.T) {
	t.Run("close with drain delivers pending commands", func(t *testing.T) {
		q := newCommandDeque()
		q.PushBack(&labelCommand{label: "c1"})
		q.PushBack(&labelCommand{label: "c2"})
		q.Close(true)

		got := drainLabels(t, q, 2)
		if got[0] != "c1" || got[1] != "c2" {
			t.Errorf("Expected [c1 c2], got %v", got)
		}

		if _, ok := q.Poll(); ok {
			t.Error("Expected Poll to report closed after drain")
		}
	})

	t.Run("close without drain discards pending commands", func(t *testing.T) {
		q := newCommandDeque()
		q.PushBack(&labelCommand{label: "c1"})
		q.Close(false)

		if _, ok := q.Poll(); ok {
			t.Error("Expected Poll to report closed immediately")
		}
		if q.Len() != 0 {
			t.Errorf("Expected empty deque, got %d pending commands", q.Len())
		}
	})

	t.Run("discard aborts a drain in progress", func(t *testing.T) {
		q := newCommandDeque()
		q.PushBack(&labelCommand{label: "c1"})
		q.PushBack(&labelCommand{label: "c2"})
		q.Close(true)

		got := drainLabels(t, q, 1)
		if got[0] != "c1" {
			t.Errorf("Expected [c1], got %v", got)
		}

		q.Discard()
		if _, ok := q.Poll(); ok {
			t.Error("Expected Poll to report closed after Discard")
		}
		if q.Len() != 0 {
			t.Errorf("Expected empty deque after Discard, got %d pending commands", q.Len())
		}
	})

	t.Run("pushes after close are dropped", func(t *testing.T) {
		q := newCommandDeque()
		q.Close(true)

		if q.PushBack(&labelCommand{label: "c1"}) {
			t.Error("Expected PushBack to report the drop")
		}
		if q.PushFront(&labelCommand{label: "p1"}) {
			t.Error("Expected PushFront to report the drop")
		}
	})
}

// TestDequeConcurrentPush verifies the deque under concurrent producers
func TestDequeConcurrentPush(t *testing.T) {
	const producers = 10
	const itemsPerProducer = 1000
	totalItems := producers * itemsPerProducer

	q := newCommandDeque()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < itemsPerProducer; j++ {
				if n%2 == 0 {
					q.PushBack(&labelCommand{label: "b"})
				} else {
					q.PushFront(&labelCommand{label: "f"})
				}
			}
		}(i)
	}
	wg.Wait()

	if got := q.Len(); got != totalItems {
		t.Fatalf("Expected %d pending commands, got %d", totalItems, got)
	}

	// Consume everything
	for i := 0; i < totalItems; i++ {
		if _, ok := q.Poll(); !ok {
			t.Fatalf("Deque closed after %d of %d commands", i, totalItems)
		}
	}
}

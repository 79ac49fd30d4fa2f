package reactor

import (
	"sync"
)

// --------------------------------------------------------------------------
// Command Deque
// --------------------------------------------------------------------------

// commandDeque is the double-ended command queue owned by a session.
//
// Guarantees:
//
//   - Thread-Safe: any number of goroutines may push concurrently
//   - Two insertion ends: PushBack keeps FIFO order among normal commands,
//     PushFront inserts ahead of all pending commands (LIFO among
//     front-inserted commands, since each new one goes to the very front)
//   - Single Consumer: designed for one goroutine to Poll commands
//   - Close semantics: pushes after Close are dropped; Poll drains the
//     remaining commands when closed with drain=true, otherwise returns
//     immediately
type commandDeque struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []ICommand
	closed bool
	drain  bool
}

// newCommandDeque creates an empty command deque
func newCommandDeque() *commandDeque {
	q := &commandDeque{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// PushFront inserts a command ahead of all pending commands.
// Returns false if the deque is closed and the command was dropped.
func (q *commandDeque) PushFront(cmd ICommand) bool {
	if cmd == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append([]ICommand{cmd}, q.items...)
	q.cond.Signal()
	return true
}

// PushBack appends a command behind all pending commands.
// Returns false if the deque is closed and the command was dropped.
func (q *commandDeque) PushBack(cmd ICommand) bool {
	if cmd == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, cmd)
	q.cond.Signal()
	return true
}

// Poll removes and returns the front command, blocking until a command is
// available or the deque is closed. The boolean return value is false once
// the deque is closed and no more commands will be delivered.
func (q *commandDeque) Poll() (ICommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if len(q.items) > 0 {
			// A closed deque without drain delivers nothing
			if q.closed && !q.drain {
				q.items = nil
				return nil, false
			}
			cmd := q.items[0]
			q.items = q.items[1:]
			return cmd, true
		}

		if q.closed {
			return nil, false
		}

		q.cond.Wait()
	}
}

// Close marks the deque as closed. With drain=true the consumer still
// receives all pending commands; with drain=false they are discarded.
// Pushes after Close are always dropped.
func (q *commandDeque) Close(drainPending bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.drain = drainPending
	if !drainPending {
		q.items = nil
	}
	q.cond.Broadcast()
}

// Discard closes the deque and drops all pending commands, aborting a drain
// in progress. Unlike Close it takes effect even on an already-closed deque.
func (q *commandDeque) Discard() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.drain = false
	q.items = nil
	q.cond.Broadcast()
}

// Len returns the number of pending commands
func (q *commandDeque) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

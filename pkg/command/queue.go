package command

// Queue is an unbounded FIFO of pending commands. It is not safe for
// concurrent use; the owning controller serialises access.
type Queue struct {
	items []Command
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends cmd at the tail.
func (q *Queue) Enqueue(cmd Command) {
	q.items = append(q.items, cmd)
}

// Dequeue removes and returns the head. ok is false when the queue is empty.
func (q *Queue) Dequeue() (cmd Command, ok bool) {
	if len(q.items) == 0 {
		return Command{}, false
	}
	cmd = q.items[0]
	q.items[0] = Command{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return cmd, true
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	return len(q.items)
}

// Clear discards every pending command.
func (q *Queue) Clear() {
	q.items = nil
}

// Snapshot returns a copy of the pending commands, head first.
func (q *Queue) Snapshot() []Command {
	out := make([]Command, len(q.items))
	copy(out, q.items)
	return out
}

package command

import (
	"errors"
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	in := []Command{Forward(2), Right(90), Backward(1), Left(45)}
	for _, c := range in {
		q.Enqueue(c)
	}

	if q.Len() != len(in) {
		t.Fatalf("Len: got %d, want %d", q.Len(), len(in))
	}

	for i, want := range in {
		got, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue %d: queue unexpectedly empty", i)
		}
		if got != want {
			t.Errorf("Dequeue %d: got %v, want %v", i, got, want)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue on empty queue should report empty")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Left(45))
	q.Enqueue(Forward(1))
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", q.Len())
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue after Clear should report empty")
	}

	// Still usable after clearing
	q.Enqueue(Right(10))
	if got, _ := q.Dequeue(); got != Right(10) {
		t.Errorf("got %v after reuse, want %v", got, Right(10))
	}
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Forward(1))
	snap := q.Snapshot()
	snap[0] = Backward(5)

	got, _ := q.Dequeue()
	if got != Forward(1) {
		t.Errorf("Snapshot mutation leaked into queue: got %v", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"forward", MoveForward},
		{"FWD", MoveForward},
		{"back", MoveBackward},
		{"backward", MoveBackward},
		{"left", TurnLeft},
		{"turnLeft", TurnLeft},
		{" right ", TurnRight},
		{"turnright", TurnRight},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseKind("jump"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(jump) error = %v, want ErrUnknownKind", err)
	}
}

func TestKind_DefaultValue(t *testing.T) {
	if MoveForward.DefaultValue() != 1 || MoveBackward.DefaultValue() != 1 {
		t.Error("moves should default to 1 unit")
	}
	if TurnLeft.DefaultValue() != 45 || TurnRight.DefaultValue() != 45 {
		t.Error("turns should default to 45 degrees")
	}
}

func TestCommand_String(t *testing.T) {
	if got := Forward(2).String(); got != "moveForward(2)" {
		t.Errorf("got %q", got)
	}
	if got := Right(-22.5).String(); got != "turnRight(-22.5)" {
		t.Errorf("got %q", got)
	}
}

func TestCommand_Validate(t *testing.T) {
	if err := Backward(0).Validate(); err != nil {
		t.Errorf("zero magnitude should be valid: %v", err)
	}
	if err := (Command{Kind: "spin", Value: 1}).Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind error = %v", err)
	}
}

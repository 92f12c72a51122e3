package command

import (
	"errors"
	"testing"
)

func TestEncodeResetExactBytes(t *testing.T) {
	msg, err := EncodeReset(80, 60)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	want := `{"command":"reset","obs_width":80,"obs_height":60}`
	if string(msg) != want {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestEncodeResetRejectsBadSize(t *testing.T) {
	if _, err := EncodeReset(0, 60); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := EncodeReset(80, -1); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestEncodeAction(t *testing.T) {
	msg, err := EncodeAction(MoveForward)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	want := `{"command":"action","action":"move_forward"}`
	if string(msg) != want {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestEncodeActionInvalid(t *testing.T) {
	for _, action := range []Action{Action(Count()), Action(-1), Action(99)} {
		msg, err := EncodeAction(action)
		if !errors.Is(err, ErrInvalidAction) {
			t.Errorf("action %d: want ErrInvalidAction, got %v", int(action), err)
		}
		if msg != nil {
			t.Errorf("action %d: bytes built for invalid action", int(action))
		}
	}
}

func TestActionNamesRoundTrip(t *testing.T) {
	for i := 0; i < Count(); i++ {
		action := Action(i)
		back, err := FromName(action.String())
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		if back != action {
			t.Fatalf("%s: round trip gave %s", action, back)
		}
	}
	if _, err := FromName("warp"); !errors.Is(err, ErrInvalidAction) {
		t.Fatal("unknown name must fail ErrInvalidAction")
	}
}

package simulator

import (
	"testing"

	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/command"
)

func TestHandleResetSetsObservationSize(t *testing.T) {
	world := NewWorld()
	frame, err := world.Handle([]byte(`{"command":"reset","obs_width":80,"obs_height":60}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if frame.Height() != 60 || frame.Width() != 80 || frame.Channels() != 3 {
		t.Fatalf("unexpected shape: %v", frame.Shape)
	}
	if len(frame.Data) != 60*80*3 {
		t.Fatalf("unexpected payload length: %d", len(frame.Data))
	}
}

func TestHandleActionChangesView(t *testing.T) {
	world := NewWorld()
	before, err := world.Handle([]byte(`{"command":"reset","obs_width":32,"obs_height":24}`))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	after, err := world.Handle([]byte(`{"command":"action","action":"turn_left"}`))
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	same := true
	for i := range before.Data {
		if before.Data[i] != after.Data[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("turning must change the rendered view")
	}
}

func TestHandleRejectsUnknownAction(t *testing.T) {
	world := NewWorld()
	if _, err := world.Handle([]byte(`{"command":"action","action":"warp"}`)); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if _, err := world.Handle([]byte(`{"command":"selfdestruct"}`)); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if _, err := world.Handle([]byte(`not json`)); err == nil {
		t.Fatal("expected error for garbage")
	}
}

func TestFramesDecode(t *testing.T) {
	world := NewWorld()
	world.Reset(80, 60)
	for _, action := range []command.Action{command.MoveForward, command.TurnRight, command.Pickup} {
		world.Apply(action)
		header, payload, err := codec.Encode(world.Frame())
		if err != nil {
			t.Fatalf("%s: encode: %v", action, err)
		}
		h, err := codec.ParseHeader(header)
		if err != nil {
			t.Fatalf("%s: parse header: %v", action, err)
		}
		if _, err := codec.Decode(h, payload); err != nil {
			t.Fatalf("%s: decode: %v", action, err)
		}
	}
}

func TestAgentStaysInBounds(t *testing.T) {
	world := NewWorld()
	world.Reset(16, 16)
	for i := 0; i < 100; i++ {
		world.Apply(command.MoveForward)
	}
	if world.x < 0 || world.x > 1 || world.y < 0 || world.y > 1 {
		t.Fatalf("agent escaped the floor: %v,%v", world.x, world.y)
	}
}

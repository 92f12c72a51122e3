package env

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"minibot-bridge-go/internal/bridge"
	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/command"
	"minibot-bridge-go/internal/config"
)

// scriptedChannel answers every command with a fixed-size uint8 frame
// and keeps the decoded commands for inspection.
type scriptedChannel struct {
	width    int
	height   int
	commands []map[string]any
	pending  [][]byte
}

func (c *scriptedChannel) Send(msg []byte) error {
	var cmd map[string]any
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return err
	}
	c.commands = append(c.commands, cmd)
	frame := &codec.Frame{
		Dtype: "uint8",
		Shape: []int{c.height, c.width, 3},
		Data:  make([]byte, c.height*c.width*3),
	}
	header, payload, err := codec.Encode(frame)
	if err != nil {
		return err
	}
	c.pending = append(c.pending, header, payload)
	return nil
}

func (c *scriptedChannel) Recv() ([]byte, error) {
	if len(c.pending) == 0 {
		return nil, errors.New("nothing pending")
	}
	msg := c.pending[0]
	c.pending = c.pending[1:]
	return msg, nil
}

func (c *scriptedChannel) SetRecvDeadline(time.Duration) error { return nil }
func (c *scriptedChannel) Close() error                        { return nil }

func newTestEnv(t *testing.T) (*Env, *scriptedChannel) {
	t.Helper()
	ch := &scriptedChannel{width: 80, height: 60}
	cfg := config.Config{ObsWidth: 80, ObsHeight: 60}
	return New(bridge.NewSession(ch, time.Second), cfg), ch
}

func TestResetReturnsFrame(t *testing.T) {
	e, ch := newTestEnv(t)

	frame, info, err := e.Reset(nil, nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if frame.Height() != 60 || frame.Width() != 80 || frame.Channels() != 3 {
		t.Fatalf("unexpected observation shape: %v", frame.Shape)
	}
	if info == nil {
		t.Fatal("info must be non-nil")
	}

	cmd := ch.commands[0]
	if cmd["command"] != "reset" {
		t.Fatalf("unexpected command: %v", cmd)
	}
	if cmd["obs_width"].(float64) != 80 || cmd["obs_height"].(float64) != 60 {
		t.Fatalf("unexpected observation size: %v", cmd)
	}
}

func TestStepNeutralEpisodeSemantics(t *testing.T) {
	e, ch := newTestEnv(t)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}

	frame, reward, term, trunc, info, err := e.Step(command.MoveForward)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if frame == nil {
		t.Fatal("step must return a frame")
	}
	if reward != 0 || term || trunc {
		t.Fatalf("bridge layer must stay neutral: reward=%v term=%v trunc=%v", reward, term, trunc)
	}
	if info == nil {
		t.Fatal("info must be non-nil")
	}
	if e.StepCount() != 1 {
		t.Fatalf("step count: %d", e.StepCount())
	}

	cmd := ch.commands[len(ch.commands)-1]
	if cmd["command"] != "action" || cmd["action"] != "move_forward" {
		t.Fatalf("unexpected command: %v", cmd)
	}
}

func TestResetZeroesStepCount(t *testing.T) {
	e, _ := newTestEnv(t)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, _, _, _, err := e.Step(command.TurnLeft); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if e.StepCount() != 0 {
		t.Fatalf("reset must zero the step count, got %d", e.StepCount())
	}
}

func TestStepInvalidActionSendsNothing(t *testing.T) {
	e, ch := newTestEnv(t)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	sent := len(ch.commands)

	_, _, _, _, _, err := e.Step(command.Action(command.Count()))
	if !errors.Is(err, command.ErrInvalidAction) {
		t.Fatalf("want ErrInvalidAction, got %v", err)
	}
	if len(ch.commands) != sent {
		t.Fatal("invalid action must not reach the channel")
	}
}

func TestRenderUsesCache(t *testing.T) {
	e, _ := newTestEnv(t)
	if e.Render() != nil {
		t.Fatal("render before reset must be nil")
	}
	frame, _, err := e.Reset(nil, nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if e.Render() != frame {
		t.Fatal("render must return the cached frame")
	}
}

func TestSpaces(t *testing.T) {
	e, _ := newTestEnv(t)
	if e.ActionSpace().N != command.Count() {
		t.Fatalf("action space size: %d", e.ActionSpace().N)
	}
	box := e.ObservationSpace()
	if box.Dtype != "uint8" || box.Low != 0 || box.High != 255 {
		t.Fatalf("unexpected box: %+v", box)
	}
	if len(box.Shape) != 3 || box.Shape[0] != 60 || box.Shape[1] != 80 || box.Shape[2] != 3 {
		t.Fatalf("unexpected box shape: %v", box.Shape)
	}
}

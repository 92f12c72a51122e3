package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/pebbe/zmq4"

	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/command"
	"minibot-bridge-go/internal/config"
)

// World is a minimal stand-in for the robot: an agent pose on a flat
// floor, rendered into synthetic camera frames. Used for -debug runs
// when no robot endpoint is reachable.
type World struct {
	obsWidth  int
	obsHeight int
	x, y      float64
	dir       float64 // radians

	carrying bool
	done     bool
}

const (
	turnStep = math.Pi / 12
	moveStep = 0.15
)

func NewWorld() *World {
	return &World{
		obsWidth:  config.DefaultObsWidth,
		obsHeight: config.DefaultObsHeight,
	}
}

// Reset recenters the agent and fixes the observation size for
// subsequent frames.
func (w *World) Reset(obsWidth, obsHeight int) {
	if obsWidth > 0 {
		w.obsWidth = obsWidth
	}
	if obsHeight > 0 {
		w.obsHeight = obsHeight
	}
	w.x, w.y, w.dir = 0.5, 0.5, 0
	w.carrying = false
	w.done = false
}

// Apply moves the agent. Unknown motion actions leave the pose alone,
// matching a robot that ignores actuation it cannot perform.
func (w *World) Apply(action command.Action) {
	switch action {
	case command.TurnLeft:
		w.dir += turnStep
	case command.TurnRight:
		w.dir -= turnStep
	case command.MoveForward:
		w.advance(moveStep)
	case command.MoveBack:
		w.advance(-moveStep)
	case command.Pickup:
		w.carrying = true
	case command.Drop:
		w.carrying = false
	case command.Done:
		w.done = true
	}
}

func (w *World) advance(step float64) {
	w.x += math.Cos(w.dir) * step
	w.y += math.Sin(w.dir) * step
	w.x = clamp(w.x, 0, 1)
	w.y = clamp(w.y, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Frame renders the current view: a horizon gradient whose hue tracks
// the agent heading, with a marker block at the agent position. Enough
// structure for a display and for exercising the decode path with
// realistic sizes.
func (w *World) Frame() *codec.Frame {
	width, height := w.obsWidth, w.obsHeight
	data := make([]byte, height*width*3)
	headingShade := byte(128 + 127*math.Sin(w.dir))
	for row := 0; row < height; row++ {
		sky := byte(255 * row / height)
		for col := 0; col < width; col++ {
			i := (row*width + col) * 3
			data[i] = sky
			data[i+1] = headingShade
			data[i+2] = byte(255 * col / width)
		}
	}

	markerRow := int(w.y * float64(height-1))
	markerCol := int(w.x * float64(width-1))
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			row, col := markerRow+dr, markerCol+dc
			if row < 0 || row >= height || col < 0 || col >= width {
				continue
			}
			i := (row*width + col) * 3
			data[i], data[i+1], data[i+2] = 255, 0, 0
			if w.carrying {
				data[i+1] = 255
			}
		}
	}

	return &codec.Frame{
		Dtype: "uint8",
		Shape: []int{height, width, 3},
		Data:  data,
	}
}

type wireCommand struct {
	Command   string `json:"command"`
	ObsWidth  int    `json:"obs_width"`
	ObsHeight int    `json:"obs_height"`
	Action    string `json:"action"`
}

// Handle applies one decoded command and returns the reply frame.
func (w *World) Handle(msg []byte) (*codec.Frame, error) {
	var cmd wireCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}
	switch cmd.Command {
	case "reset":
		w.Reset(cmd.ObsWidth, cmd.ObsHeight)
	case "action":
		action, err := command.FromName(cmd.Action)
		if err != nil {
			return nil, err
		}
		w.Apply(action)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Command)
	}
	return w.Frame(), nil
}

// Serve binds a PAIR endpoint and answers commands until ctx is done.
// Each reply is the header message followed by the raw payload message,
// the framing the bridge session expects.
func Serve(ctx context.Context, endpoint string) error {
	socket, err := zmq4.NewSocket(zmq4.PAIR)
	if err != nil {
		return err
	}
	defer socket.Close()
	if err := socket.Bind(endpoint); err != nil {
		return err
	}
	// Short receive timeout so ctx cancellation is noticed promptly.
	if err := socket.SetRcvtimeo(200 * time.Millisecond); err != nil {
		return err
	}

	world := NewWorld()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := socket.RecvBytes(0)
		if err != nil {
			continue
		}
		frame, err := world.Handle(msg)
		if err != nil {
			log.Printf("simulator: dropping command: %v", err)
			continue
		}
		header, payload, err := codec.Encode(frame)
		if err != nil {
			log.Printf("simulator: encode frame: %v", err)
			continue
		}
		if _, err := socket.SendBytes(header, 0); err != nil {
			return fmt.Errorf("send header: %w", err)
		}
		if _, err := socket.SendBytes(payload, 0); err != nil {
			return fmt.Errorf("send payload: %w", err)
		}
	}
}

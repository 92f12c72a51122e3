package env

import (
	"minibot-bridge-go/internal/bridge"
	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/command"
	"minibot-bridge-go/internal/config"
)

// Discrete is a gym-style discrete action space of N actions.
type Discrete struct {
	N int `json:"n"`
}

// Box is a gym-style bounded array observation space.
type Box struct {
	Low   int    `json:"low"`
	High  int    `json:"high"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
}

// Env adapts a bridge session to the reset/step/render/close convention
// RL clients expect. The bridge carries no reward or episode semantics,
// so reward is always 0 and episodes never terminate at this layer.
type Env struct {
	session   *bridge.Session
	obsWidth  int
	obsHeight int
	stepCount int
}

// New wraps an existing session. Observation size is fixed for the
// lifetime of the env, as it is for the session's config.
func New(session *bridge.Session, cfg config.Config) *Env {
	return &Env{
		session:   session,
		obsWidth:  cfg.ObsWidth,
		obsHeight: cfg.ObsHeight,
	}
}

func (e *Env) ActionSpace() Discrete {
	return Discrete{N: command.Count()}
}

func (e *Env) ObservationSpace() Box {
	return Box{
		Low:   0,
		High:  255,
		Shape: []int{e.obsHeight, e.obsWidth, 3},
		Dtype: "uint8",
	}
}

// Reset asks the robot for a fresh observation stream and returns the
// first frame. Seed and options are accepted for interface parity; the
// remote robot has nothing to seed.
func (e *Env) Reset(seed *int64, options map[string]any) (*codec.Frame, map[string]any, error) {
	_ = seed
	_ = options
	msg, err := command.EncodeReset(e.obsWidth, e.obsHeight)
	if err != nil {
		return nil, nil, err
	}
	frame, err := e.session.Roundtrip(msg)
	if err != nil {
		return nil, nil, err
	}
	e.stepCount = 0
	return frame, map[string]any{}, nil
}

// Step sends one action and returns the resulting camera frame.
func (e *Env) Step(action command.Action) (*codec.Frame, float64, bool, bool, map[string]any, error) {
	msg, err := command.EncodeAction(action)
	if err != nil {
		return nil, 0, false, false, nil, err
	}
	frame, err := e.session.Roundtrip(msg)
	if err != nil {
		return nil, 0, false, false, nil, err
	}
	e.stepCount++
	return frame, 0, false, false, map[string]any{}, nil
}

// Render returns the cached latest frame without any channel traffic.
func (e *Env) Render() *codec.Frame {
	return e.session.Latest()
}

func (e *Env) StepCount() int { return e.stepCount }

func (e *Env) Close() error {
	return e.session.Close()
}

package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidAction = errors.New("invalid action")

// Action is one entry of the closed enumeration the robot accepts.
// Values and order match the MiniWorld action set.
type Action int

const (
	TurnLeft Action = iota
	TurnRight
	MoveForward
	MoveBack
	Pickup
	Drop
	Toggle
	Done

	numActions
)

var actionNames = [numActions]string{
	TurnLeft:    "turn_left",
	TurnRight:   "turn_right",
	MoveForward: "move_forward",
	MoveBack:    "move_back",
	Pickup:      "pickup",
	Drop:        "drop",
	Toggle:      "toggle",
	Done:        "done",
}

// Count is the number of actions in the enumeration (the discrete
// action space size).
func Count() int { return int(numActions) }

func (a Action) Valid() bool { return a >= 0 && a < numActions }

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// FromName maps a wire name back to its Action.
func FromName(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, name)
}

type resetMessage struct {
	Command   string `json:"command"`
	ObsWidth  int    `json:"obs_width"`
	ObsHeight int    `json:"obs_height"`
}

type actionMessage struct {
	Command string `json:"command"`
	Action  string `json:"action"`
}

// EncodeReset builds the reset command asking the robot for frames of
// the given observation size.
func EncodeReset(obsWidth, obsHeight int) ([]byte, error) {
	if obsWidth < 1 || obsHeight < 1 {
		return nil, fmt.Errorf("invalid observation size %dx%d", obsWidth, obsHeight)
	}
	return json.Marshal(resetMessage{
		Command:   "reset",
		ObsWidth:  obsWidth,
		ObsHeight: obsHeight,
	})
}

// EncodeAction builds an action command. The action is validated before
// any bytes are built, so a malformed command can never reach the wire.
func EncodeAction(action Action) ([]byte, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: id %d, have %d actions", ErrInvalidAction, int(action), numActions)
	}
	return json.Marshal(actionMessage{
		Command: "action",
		Action:  actionNames[action],
	})
}

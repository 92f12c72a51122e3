package config

import (
	"fmt"
	"time"
)

// Defaults match the original robot deployment.
const (
	DefaultPort      = 7777
	DefaultObsWidth  = 80
	DefaultObsHeight = 60
)

// Config is the immutable construction-time configuration of a bridge
// session and its surrounding tooling.
type Config struct {
	Host        string
	Port        int
	ObsWidth    int
	ObsHeight   int
	RecvTimeout time.Duration

	UIPort    int
	UIRate    time.Duration
	RecordDir string
}

// Endpoint is the ZMQ address of the robot, e.g. tcp://minibot1.local:7777.
func (c Config) Endpoint() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

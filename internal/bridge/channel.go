package bridge

import (
	"time"

	"github.com/pebbe/zmq4"
)

// Channel is one duplex message channel to the robot. A channel is
// exclusively owned by a single Session for its lifetime.
type Channel interface {
	Send(msg []byte) error
	Recv() ([]byte, error)
	// SetRecvDeadline bounds the next Recv calls; zero disables the bound.
	SetRecvDeadline(timeout time.Duration) error
	Close() error
}

type zmqChannel struct {
	socket *zmq4.Socket
}

// Dial connects a ZMQ PAIR channel to the robot endpoint
// (e.g. tcp://minibot1.local:7777).
func Dial(endpoint string) (Channel, error) {
	socket, err := zmq4.NewSocket(zmq4.PAIR)
	if err != nil {
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	return &zmqChannel{socket: socket}, nil
}

func (c *zmqChannel) Send(msg []byte) error {
	_, err := c.socket.SendBytes(msg, 0)
	return err
}

func (c *zmqChannel) Recv() ([]byte, error) {
	return c.socket.RecvBytes(0)
}

func (c *zmqChannel) SetRecvDeadline(timeout time.Duration) error {
	if timeout <= 0 {
		// -1 blocks indefinitely in ZMQ terms.
		return c.socket.SetRcvtimeo(-1)
	}
	return c.socket.SetRcvtimeo(timeout)
}

func (c *zmqChannel) Close() error {
	return c.socket.Close()
}

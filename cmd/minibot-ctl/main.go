package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"minibot-bridge-go/internal/bridge"
	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/command"
	"minibot-bridge-go/internal/config"
	"minibot-bridge-go/internal/display"
	"minibot-bridge-go/internal/env"
	"minibot-bridge-go/internal/output"
	"minibot-bridge-go/internal/simulator"
)

func main() {
	var (
		host         = flag.String("host", "minibot1.local", "Robot hostname or IP")
		port         = flag.Int("port", config.DefaultPort, "Robot ZMQ port")
		obsWidth     = flag.Int("obs-width", config.DefaultObsWidth, "Observation width in pixels")
		obsHeight    = flag.Int("obs-height", config.DefaultObsHeight, "Observation height in pixels")
		recvTimeout  = flag.Duration("recv-timeout", 5*time.Second, "Reply receive timeout")
		steps        = flag.Int("steps", 100, "Number of actions to send (0 = run until interrupted)")
		stepInterval = flag.Duration("step-interval", 200*time.Millisecond, "Pause between actions")
		actions      = flag.String("actions", "", "Comma-separated action script to cycle (empty = random)")
		debug        = flag.Bool("debug", false, "Run against an in-process simulated robot")
		uiPort       = flag.Int("ui-port", 0, "HTTP port for the frame viewer (0 = disabled)")
		uiRate       = flag.Duration("ui-rate", 100*time.Millisecond, "Viewer frame push interval")
		recordDir    = flag.String("record-dir", "", "Directory for frame logs (empty = no recording)")
	)
	flag.Parse()

	cfg := config.Config{
		Host:        *host,
		Port:        *port,
		ObsWidth:    *obsWidth,
		ObsHeight:   *obsHeight,
		RecvTimeout: *recvTimeout,
		UIPort:      *uiPort,
		UIRate:      *uiRate,
		RecordDir:   *recordDir,
	}

	policy, err := parsePolicy(*actions)
	if err != nil {
		log.Fatalf("invalid -actions: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *debug {
		cfg.Host = "127.0.0.1"
		go func() {
			if err := simulator.Serve(ctx, cfg.Endpoint()); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("simulator stopped: %v", err)
			}
		}()
		// Give the simulator a moment to bind before dialing.
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("connecting to %s ...", cfg.Endpoint())
	session, err := bridge.Connect(cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer session.Close()
	robot := env.New(session, cfg)
	log.Printf("connected, action space %d, observation %dx%d",
		robot.ActionSpace().N, cfg.ObsWidth, cfg.ObsHeight)

	var recorder *output.FrameLogWriter
	if cfg.RecordDir != "" {
		recorder, err = output.NewFrameLogWriter(cfg.RecordDir)
		if err != nil {
			log.Fatalf("start frame log: %v", err)
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Printf("frame log close failed: %v", err)
			}
		}()
	}

	// Shared view of the loop for the viewer goroutine.
	var mu sync.Mutex
	var latest *codec.Frame
	publish := func(frame *codec.Frame) {
		mu.Lock()
		latest = frame
		mu.Unlock()
	}

	if cfg.UIPort > 0 {
		frameFn := func() *codec.Frame {
			mu.Lock()
			defer mu.Unlock()
			return latest
		}
		statusFn := func() map[string]any {
			mu.Lock()
			defer mu.Unlock()
			status := map[string]any{"endpoint": cfg.Endpoint()}
			if latest != nil {
				status["obs_shape"] = latest.Shape
			}
			return status
		}
		go func() {
			log.Printf("frame viewer at http://localhost:%d", cfg.UIPort)
			if err := display.Run(ctx, cfg, frameFn, statusFn); err != nil {
				log.Printf("viewer stopped: %v", err)
			}
		}()
	}

	frame, _, err := robot.Reset(nil, nil)
	if err != nil {
		log.Fatalf("reset: %v", err)
	}
	publish(frame)
	if recorder != nil {
		if err := recorder.Record(0, frame); err != nil {
			log.Printf("frame log write failed: %v", err)
		}
	}
	log.Printf("reset ok, first frame %v", frame.Shape)

	ticker := time.NewTicker(*stepInterval)
	defer ticker.Stop()
	for i := 0; *steps == 0 || i < *steps; i++ {
		select {
		case <-ctx.Done():
			log.Printf("interrupted after %d steps", robot.StepCount())
			return
		case <-ticker.C:
		}

		action := policy(i)
		frame, _, _, _, _, err := robot.Step(action)
		if err != nil {
			log.Fatalf("step %d (%s): %v", i, action, err)
		}
		publish(frame)
		if recorder != nil {
			if err := recorder.Record(robot.StepCount(), frame); err != nil {
				log.Printf("frame log write failed: %v", err)
			}
		}
		if (i+1)%10 == 0 {
			log.Printf("step %d: %s", i+1, action)
		}
	}
	log.Printf("done, %d steps", robot.StepCount())
}

// parsePolicy turns a comma-separated action list into a step policy.
// An empty list means uniform random actions.
func parsePolicy(script string) (func(step int) command.Action, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return func(int) command.Action {
			return command.Action(rng.Intn(command.Count()))
		}, nil
	}
	names := strings.Split(script, ",")
	sequence := make([]command.Action, 0, len(names))
	for _, name := range names {
		action, err := command.FromName(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		sequence = append(sequence, action)
	}
	return func(step int) command.Action {
		return sequence[step%len(sequence)]
	}, nil
}

// Package runner hosts the service lifecycle: startup banner, run state and
// drain-on-shutdown coordination for the media server and its sessions.
package runner

import (
	"bytes"
	"context"
	"os"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks fire around the run loop. OnStart runs after the banner, OnStop runs
// after draining completes.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer lets in-flight calls finish before the process exits.
type Drainer interface {
	Drain() error
}

const ServiceVersion = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"VOXLINE\" \"\" 0 }}\nVersion: " + ServiceVersion + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

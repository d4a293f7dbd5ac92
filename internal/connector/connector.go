// Package connector establishes the per-run session to the target and owns
// the address-vs-name dispatch between the two connection modes.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/credential"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/target"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/winrmbridge"
)

// Mode selects how the collection reaches the target.
type Mode string

const (
	// DirectManagement issues individual management queries over the session.
	DirectManagement Mode = "direct-management"
	// RemoteExecution ships the whole collection procedure to the target and
	// runs it there in a single round trip.
	RemoteExecution Mode = "remote-execution"
)

// ModeFor maps the target classification to a connection mode, once, at the
// top of the run. IP literals take the direct path because remote-execution
// channels commonly refuse address-form targets unless the client trusts
// them explicitly.
func ModeFor(kind target.Kind) Mode {
	if kind == target.KindAddress {
		return DirectManagement
	}
	return RemoteExecution
}

// Config carries everything needed to open a session.
type Config struct {
	Target     string
	Port       int
	UseHTTPS   bool
	Timeout    time.Duration
	Mode       Mode
	Credential credential.Credential
}

// Session is the ephemeral connectivity context for exactly one collection
// pass. It is exclusively owned by the run; the run's finalizer closes it on
// every exit path.
type Session struct {
	client *winrmbridge.Client
	target string
	mode   Mode
	closed bool
}

// Open dials the target and verifies the session with a trivial remote
// invocation, so connectivity and authentication failures surface here
// rather than mid-collection. One attempt, no retry; the transport's error
// text propagates untouched for later classification.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	client, err := winrmbridge.NewClient(winrmbridge.Config{
		Target:     cfg.Target,
		Port:       cfg.Port,
		UseHTTPS:   cfg.UseHTTPS,
		Timeout:    cfg.Timeout,
		Credential: cfg.Credential,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{client: client, target: cfg.Target, mode: cfg.Mode}
	if _, err := s.Run(ctx, "$PSVersionTable.PSVersion.Major"); err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes a PowerShell script within the session.
func (s *Session) Run(ctx context.Context, script string) (string, error) {
	if s.closed {
		return "", fmt.Errorf("session to %s is closed", s.target)
	}
	return s.client.RunPowerShell(ctx, script)
}

// Mode reports the connection mode the session was opened with.
func (s *Session) Mode() Mode {
	return s.mode
}

// Close releases the session. WinRM connections are per-request, so there is
// no transport handle to tear down; closing marks the session unusable.
// Safe on a nil session and safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	return nil
}

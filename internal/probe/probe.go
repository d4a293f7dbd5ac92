// Package probe orchestrates one monitoring run against a domain
// controller: classify the target, open a session, collect, derive, report.
// Every run produces exactly one report, success or failure.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/classify"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/collector"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/connector"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/credential"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/prtg"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/target"
)

// DefaultTimeout bounds each remote operation.
const DefaultTimeout = 30 * time.Second

// Input carries the per-run parameters. ComputerName, Username and Password
// are the three required ones; the rest default sensibly.
type Input struct {
	ComputerName string `validate:"required,min=1"`
	Username     string `validate:"required,min=1"`
	Password     string `validate:"required,min=1"`

	Port              int
	UseHTTPS          bool
	Timeout           time.Duration
	WhitespacePercent float64
}

var validate = validator.New()

// Outcome is the run's report plus the process exit signal: 0 on success,
// the classification code on failure.
type Outcome struct {
	Report   prtg.Report
	ExitCode int
}

// session is what a run needs from an open connection. *connector.Session
// satisfies it; tests substitute fakes.
type session interface {
	Run(ctx context.Context, script string) (string, error)
	Close() error
}

// Prober executes monitoring runs.
type Prober struct {
	logger *slog.Logger
	open   func(ctx context.Context, cfg connector.Config) (session, error)
}

// New creates a Prober using the WinRM connector.
func New(logger *slog.Logger) *Prober {
	return &Prober{
		logger: logger,
		open: func(ctx context.Context, cfg connector.Config) (session, error) {
			return connector.Open(ctx, cfg)
		},
	}
}

// Run performs one complete probe cycle. It never returns a Go error: any
// failure, including a panic inside the collection sequence, becomes a
// classified failure report. The session finalizer runs on every exit path.
func (p *Prober) Run(ctx context.Context, in Input) (out Outcome) {
	logger := p.logger.With("run_id", uuid.NewString(), "target", in.ComputerName)

	defer func() {
		if r := recover(); r != nil {
			c := classify.Classify(fmt.Errorf("unexpected failure: %v", r))
			logger.Error("probe panicked", "code", c.Code, "panic", r)
			out = Outcome{Report: prtg.Failure(c), ExitCode: c.Code}
		}
	}()

	metrics, err := p.collect(ctx, logger, in)
	if err != nil {
		c := classify.Classify(err)
		logger.Error("probe failed", "code", c.Code, "error", err)
		return Outcome{Report: prtg.Failure(c), ExitCode: c.Code}
	}

	logger.Info("probe succeeded",
		"database_path", metrics.DatabasePath,
		"database_size_mb", metrics.DatabaseSizeMB,
		"drive_used_percent", metrics.DriveUsedPercent)
	return Outcome{Report: prtg.Success(metrics), ExitCode: 0}
}

// collect is the fallible part of the cycle. The deferred finalizer
// releases the session on every exit path, including panics; it is a no-op
// when the connection never got assigned.
func (p *Prober) collect(ctx context.Context, logger *slog.Logger, in Input) (collector.Metrics, error) {
	if err := validate.Struct(in); err != nil {
		return collector.Metrics{}, fmt.Errorf("invalid probe input: %w", err)
	}

	host := strings.TrimSpace(in.ComputerName)
	kind := target.Classify(host)
	mode := connector.ModeFor(kind)
	cred := credential.New(in.Username, in.Password)
	logger.Debug("target classified", "kind", kind, "mode", mode, "username", cred.Username)

	timeout := in.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var sess session
	defer func() {
		if sess == nil {
			return
		}
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("failed to release session", "error", cerr)
		}
	}()

	s, err := p.open(ctx, connector.Config{
		Target:     host,
		Port:       in.Port,
		UseHTTPS:   in.UseHTTPS,
		Timeout:    timeout,
		Mode:       mode,
		Credential: cred,
	})
	if err != nil {
		return collector.Metrics{}, err
	}
	sess = s

	var raw collector.Raw
	switch mode {
	case connector.DirectManagement:
		raw, err = collector.QueryDirect(ctx, sess)
	default:
		raw, err = collector.QueryRemote(ctx, sess)
	}
	if err != nil {
		return collector.Metrics{}, err
	}

	percent := in.WhitespacePercent
	if percent <= 0 {
		percent = collector.DefaultWhitespacePercent
	}
	return collector.Derive(raw, percent)
}

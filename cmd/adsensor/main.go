// Package main is the entrypoint for the adsensor CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/collector"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/probe"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Flags
var (
	computerName      string
	username          string
	password          string
	port              int
	useHTTPS          bool
	timeout           time.Duration
	whitespacePercent float64
	logLevel          string
	logFormat         string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adsensor",
	Short: "PRTG sensor for the Active Directory database and its hosting drive",
	Long: `adsensor is a single-shot PRTG EXE/Script Advanced sensor. It connects to a
domain controller over WinRM, reads the NTDS database location from the
registry, measures the database file and its hosting drive, and prints one
JSON report on stdout. Logs go to stderr so stdout stays machine-readable.

IP targets are queried with individual management calls; hostname targets
run the whole collection remotely in a single round trip. On failure the
exit code carries the error category (1-7).`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
	RunE:         runSensor,
}

func init() {
	rootCmd.Flags().StringVar(&computerName, "computer-name", "", "Hostname or IP literal of the domain controller (required)")
	rootCmd.Flags().StringVarP(&username, "username", "u", "", `Account name; qualified with WORKGROUP\ when it carries no domain (required)`)
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "Password; the ADSENSOR_PASSWORD environment variable takes precedence")
	rootCmd.Flags().IntVar(&port, "port", 0, "WinRM port (default 5985, or 5986 with --https)")
	rootCmd.Flags().BoolVar(&useHTTPS, "https", false, "Use the HTTPS WinRM endpoint")
	rootCmd.Flags().DurationVar(&timeout, "timeout", probe.DefaultTimeout, "Remote operation timeout")
	rootCmd.Flags().Float64Var(&whitespacePercent, "whitespace-percent", collector.DefaultWhitespacePercent, "Assumed reclaimable share of the database file, in percent (an estimate)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	_ = rootCmd.MarkFlagRequired("computer-name")
	_ = rootCmd.MarkFlagRequired("username")
}

func runSensor(cmd *cobra.Command, _ []string) error {
	logger := initLogger(logLevel, logFormat)

	// Keeps the secret out of process listings when the caller prefers env.
	if env := os.Getenv("ADSENSOR_PASSWORD"); env != "" {
		password = env
	}

	resolvedPort := port
	if resolvedPort == 0 {
		if useHTTPS {
			resolvedPort = 5986
		} else {
			resolvedPort = 5985
		}
	}

	out := probe.New(logger).Run(cmd.Context(), probe.Input{
		ComputerName:      computerName,
		Username:          username,
		Password:          password,
		Port:              resolvedPort,
		UseHTTPS:          useHTTPS,
		Timeout:           timeout,
		WhitespacePercent: whitespacePercent,
	})

	if err := out.Report.Encode(os.Stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if out.ExitCode != 0 {
		os.Exit(out.ExitCode)
	}
	return nil
}

func initLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: lvl}

	// stderr only: stdout is reserved for the report document.
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// Package winrmbridge wraps the WSMan transport used to reach the target.
package winrmbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masterzen/winrm"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/credential"
)

// Config carries everything needed to build a transport client.
type Config struct {
	Target     string
	Port       int
	UseHTTPS   bool
	Timeout    time.Duration
	Credential credential.Credential
}

// Client executes PowerShell on a remote Windows host over WSMan.
type Client struct {
	client *winrm.Client
	target string
}

// NewClient creates a WinRM client for the target.
// - Qualified usernames (DOMAIN\user) use NTLM authentication
// - Bare usernames use Basic Auth
// - UseHTTPS switches to the HTTPS endpoint (typically port 5986)
func NewClient(cfg Config) (*Client, error) {
	endpoint := winrm.NewEndpoint(
		cfg.Target,
		cfg.Port,
		cfg.UseHTTPS,
		true, // insecure - skip certificate verification
		nil,  // CA certificate
		nil,  // client certificate
		nil,  // client key
		cfg.Timeout,
	)

	var client *winrm.Client
	var err error

	if strings.Contains(cfg.Credential.Username, `\`) {
		// NTLM authentication with domain-qualified account
		params := winrm.DefaultParameters
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
		client, err = winrm.NewClientWithParameters(
			endpoint,
			cfg.Credential.Username,
			cfg.Credential.Password.Reveal(),
			params,
		)
	} else {
		// Basic authentication
		client, err = winrm.NewClient(endpoint, cfg.Credential.Username, cfg.Credential.Password.Reveal())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create WinRM client: %w", err)
	}

	return &Client{
		client: client,
		target: cfg.Target,
	}, nil
}

// RunPowerShell executes a PowerShell script and returns the trimmed stdout
// output. The script is shipped base64-encoded so quoting survives the shell
// boundary. Transport errors keep their original text so the caller can
// classify them later.
func (c *Client) RunPowerShell(ctx context.Context, script string) (string, error) {
	stdout, stderr, exitCode, err := c.client.RunWithContextWithString(ctx, winrm.Powershell(script), "")
	if err != nil {
		return "", fmt.Errorf("WinRM execution failed: %w", err)
	}

	if exitCode != 0 {
		return "", fmt.Errorf("remote command failed (exit code %d): %s", exitCode, strings.TrimSpace(stderr))
	}

	return strings.TrimSpace(stdout), nil
}

// Target returns the target hostname/IP.
func (c *Client) Target() string {
	return c.target
}

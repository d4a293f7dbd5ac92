// Package credential builds the realm-qualified credential used to
// authenticate against the target. The secret lives in memory for one run
// and never appears in logs or reports.
package credential

import (
	"log/slog"
	"strings"
)

// DefaultRealm is prefixed to usernames that carry no domain segment.
const DefaultRealm = "WORKGROUP"

// Secret is a run-scoped secret that redacts itself from formatted output
// and structured logs. Use Reveal only at the transport boundary.
type Secret string

func (Secret) String() string { return "[redacted]" }

func (Secret) GoString() string { return `"[redacted]"` }

// LogValue keeps the secret out of slog records even when logged by value.
func (Secret) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// Reveal returns the raw secret for handoff to the transport.
func (s Secret) Reveal() string { return string(s) }

// Credential is a realm-qualified username and its secret.
type Credential struct {
	Username string
	Password Secret
}

// New builds a credential, qualifying the username with the default realm
// when needed.
func New(username, password string) Credential {
	return Credential{
		Username: Qualify(username),
		Password: Secret(password),
	}
}

// Qualify prefixes DefaultRealm to usernames without a domain segment.
// Usernames already in DOMAIN\user or user@domain form pass through
// unchanged.
func Qualify(username string) string {
	if strings.ContainsAny(username, `\@`) {
		return username
	}
	return DefaultRealm + `\` + username
}

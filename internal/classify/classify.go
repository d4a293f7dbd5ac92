// Package classify maps heterogeneous transport and collection failures
// onto the sensor's stable error taxonomy.
//
// Matching is substring-based against the error text because the underlying
// failures originate from an external protocol stack with no structured
// error surface. The text is not a stable contract: localized targets
// produce non-English messages that fall through to the general code, which
// is why the original message is always preserved in full.
package classify

import (
	"fmt"
	"strings"
)

// Failure codes reported to the monitoring platform and used as process
// exit signals.
const (
	CodeGeneral           = 1
	CodeAccessDenied      = 2
	CodePathNotFound      = 3
	CodeUnreachable       = 4
	CodeTimeout           = 5
	CodeRPCUnavailable    = 6
	CodeAddressNotTrusted = 7
)

// Classification is the stable category assigned to a failure.
type Classification struct {
	Code    int
	Message string
}

// rule matches lower-cased error text. Rules are tried in order and the
// first match wins, so a message matching several patterns classifies
// exactly once.
type rule struct {
	patterns []string
	code     int
	hint     string
}

var rules = []rule{
	{
		patterns: []string{"access is denied"},
		code:     CodeAccessDenied,
		hint:     "Check credentials and make sure the account may query the domain controller.",
	},
	{
		patterns: []string{"cannot find path", "path not found"},
		code:     CodePathNotFound,
		hint:     "Active Directory does not appear to be installed on this machine.",
	},
	{
		// The last two patterns are the Go transport's wording for the
		// same condition.
		patterns: []string{"network path was not found", "unable to connect", "no such host", "connection refused"},
		code:     CodeUnreachable,
		hint:     "Target unreachable. Verify the computer name and that WinRM is listening.",
	},
	{
		patterns: []string{"timeout expired", "context deadline exceeded", "i/o timeout"},
		code:     CodeTimeout,
		hint:     "The remote call did not complete in time. Check load on the target.",
	},
	{
		patterns: []string{"the rpc server is unavailable"},
		code:     CodeRPCUnavailable,
		hint:     "The RPC endpoint is down or blocked by a firewall.",
	},
	{
		patterns: []string{"cannotuseipaddress", "trustedhosts"},
		code:     CodeAddressNotTrusted,
		hint:     "The remoting client refuses IP targets. Use the hostname or add the address to TrustedHosts.",
	},
}

// Classify assigns the first matching category to err and appends an
// actionable hint. The original error text is kept for downstream diagnosis.
func Classify(err error) Classification {
	msg := strings.TrimSpace(err.Error())
	lower := strings.ToLower(msg)

	for _, r := range rules {
		for _, pattern := range r.patterns {
			if strings.Contains(lower, pattern) {
				return Classification{
					Code:    r.code,
					Message: fmt.Sprintf("%s %s", msg, r.hint),
				}
			}
		}
	}

	return Classification{Code: CodeGeneral, Message: msg}
}

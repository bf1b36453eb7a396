package resolver

import (
	"fmt"

	"github.com/arc-language/abistage/pkg/scanner"
)

// Status is the outcome of a compatibility check
type Status int

const (
	Incompatible Status = iota
	Compatible
	// Unknown means the archive could not be read, so nothing is known about its ABIs
	Unknown
)

func (s Status) String() string {
	switch s {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reason names the branch that produced a verdict
type Reason string

const (
	ReasonNoNativeCode    Reason = "no-native-code"
	ReasonNative          Reason = "native"
	ReasonTranslated      Reason = "translated"
	ReasonPermissive32    Reason = "permissive-32bit"
	ReasonNoCompatibleABI Reason = "no-compatible-abi"
	ReasonUnreadable      Reason = "unreadable"
)

// Verdict is the resolver's answer for one archive
type Verdict struct {
	Status  Status
	Reason  Reason
	Profile *scanner.Profile
}

// UnknownPolicy decides how an Unknown verdict maps to a yes/no answer
type UnknownPolicy string

const (
	// AllowUnknown treats unreadable archives like packages without native code
	AllowUnknown UnknownPolicy = "allow"
	// DenyUnknown rejects unreadable archives
	DenyUnknown UnknownPolicy = "deny"
)

// ParsePolicy validates a policy name; "" selects AllowUnknown
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(s) {
	case "", AllowUnknown:
		return AllowUnknown, nil
	case DenyUnknown:
		return DenyUnknown, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want allow or deny)", s)
	}
}

// Supported collapses the verdict to a yes/no answer under policy
func (v Verdict) Supported(policy UnknownPolicy) bool {
	switch v.Status {
	case Compatible:
		return true
	case Unknown:
		return policy != DenyUnknown
	default:
		return false
	}
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s (%s)", v.Status, v.Reason)
}

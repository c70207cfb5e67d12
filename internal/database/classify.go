package database

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/jonesrussell/storefront-admin/internal/domain"
)

// DriverError carries a string driver code for transport layers that do not
// surface a SQLSTATE (pooled MySQL-style drivers, proxy layers). The
// classifier treats its code the same way it treats a SQLSTATE.
type DriverError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// driverCodeKinds maps string driver codes to classifications. First tier of
// the classifier; message sniffing is only a fallback.
var driverCodeKinds = map[string]domain.DBErrorKind{
	"ETIMEDOUT":                 domain.DBErrTimeout,
	"ECONNRESET":                domain.DBErrTimeout,
	"ECONNREFUSED":              domain.DBErrTimeout,
	"PROTOCOL_CONNECTION_LOST":  domain.DBErrTimeout,
	"PROTOCOL_SEQUENCE_TIMEOUT": domain.DBErrTimeout,
	"ER_ACCESS_DENIED_ERROR":    domain.DBErrAuthFailed,
	"ER_DBACCESS_DENIED_ERROR":  domain.DBErrAuthFailed,
}

// Classify maps an arbitrary error from the driver or query layer into
// exactly one DBErrorInfo. It never panics and never returns an error:
// anything it cannot place degrades to message sniffing, then to unknown.
func Classify(err error) domain.DBErrorInfo {
	if err == nil {
		return domain.DBErrorInfo{Kind: domain.DBErrUnknown}
	}

	info := domain.DBErrorInfo{Message: err.Error()}

	// Tier 1a: PostgreSQL SQLSTATE.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		info.SQLState = string(pqErr.Code)
		info.Kind = classifySQLState(string(pqErr.Code))
		return info
	}

	// Tier 1b: string driver codes from other transport layers.
	var drvErr *DriverError
	if errors.As(err, &drvErr) && drvErr.Code != "" {
		info.SQLState = drvErr.Code
		if kind, ok := driverCodeKinds[drvErr.Code]; ok {
			info.Kind = kind
		} else {
			info.Kind = domain.DBErrSQL
		}
		return info
	}

	// Tier 1c: deadline and socket timeouts.
	if errors.Is(err, context.DeadlineExceeded) {
		info.Kind = domain.DBErrTimeout
		return info
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		info.Kind = domain.DBErrTimeout
		return info
	}

	// Tier 2: message sniffing, last resort for shapeless errors.
	info.Kind = classifyMessage(err.Error())
	return info
}

// classifySQLState buckets SQLSTATE codes:
// class 08 (connection exception) and 57014 (query canceled) are the
// timeout family, class 28 is rejected credentials, anything else coded
// is a plain SQL error.
func classifySQLState(code string) domain.DBErrorKind {
	switch {
	case strings.HasPrefix(code, "08"):
		return domain.DBErrTimeout
	case code == "57014" || code == "57P01" || code == "57P02":
		return domain.DBErrTimeout
	case strings.HasPrefix(code, "28"):
		return domain.DBErrAuthFailed
	case code != "":
		return domain.DBErrSQL
	default:
		return domain.DBErrUnknown
	}
}

func classifyMessage(msg string) domain.DBErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"),
		strings.Contains(lower, "connection lost"):
		return domain.DBErrTimeout
	case strings.Contains(lower, "access denied"),
		strings.Contains(lower, "permission"):
		return domain.DBErrAuthFailed
	default:
		return domain.DBErrUnknown
	}
}

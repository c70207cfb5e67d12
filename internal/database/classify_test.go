package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/jonesrussell/storefront-admin/internal/database"
	"github.com/jonesrussell/storefront-admin/internal/domain"
)

func TestClassify_SQLState(t *testing.T) {
	tests := []struct {
		name     string
		code     pq.ErrorCode
		wantKind domain.DBErrorKind
	}{
		{"connection failure", "08006", domain.DBErrTimeout},
		{"cannot connect now", "08001", domain.DBErrTimeout},
		{"query canceled", "57014", domain.DBErrTimeout},
		{"admin shutdown", "57P01", domain.DBErrTimeout},
		{"invalid authorization", "28000", domain.DBErrAuthFailed},
		{"invalid password", "28P01", domain.DBErrAuthFailed},
		{"unique violation", "23505", domain.DBErrSQL},
		{"syntax error", "42601", domain.DBErrSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := database.Classify(&pq.Error{Code: tt.code, Message: tt.name})
			if info.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %s, want %s", info.Kind, tt.wantKind)
			}
			if info.SQLState != string(tt.code) {
				t.Errorf("Classify() sqlState = %s, want %s", info.SQLState, tt.code)
			}
		})
	}
}

func TestClassify_StringDriverCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		wantKind domain.DBErrorKind
	}{
		{"access denied", "ER_ACCESS_DENIED_ERROR", "Access denied for user", domain.DBErrAuthFailed},
		{"db access denied", "ER_DBACCESS_DENIED_ERROR", "Access denied for db", domain.DBErrAuthFailed},
		{"socket timeout", "ETIMEDOUT", "connect ETIMEDOUT", domain.DBErrTimeout},
		{"connection lost", "PROTOCOL_CONNECTION_LOST", "Connection lost", domain.DBErrTimeout},
		{"other coded error", "ER_PARSE_ERROR", "You have an error in your SQL syntax", domain.DBErrSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := database.Classify(&database.DriverError{Code: tt.code, Message: tt.message})
			if info.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %s, want %s", info.Kind, tt.wantKind)
			}
		})
	}
}

func TestClassify_MessageSniffing(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind domain.DBErrorKind
	}{
		{"timed out", errors.New("Connection timed out after 30000ms"), domain.DBErrTimeout},
		{"timeout word", errors.New("pool timeout while acquiring"), domain.DBErrTimeout},
		{"connection lost", errors.New("connection lost mid-query"), domain.DBErrTimeout},
		{"access denied", errors.New("Access denied for user 'admin'"), domain.DBErrAuthFailed},
		{"permission", errors.New("permission denied for relation products"), domain.DBErrAuthFailed},
		{"anything else", errors.New("something odd happened"), domain.DBErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := database.Classify(tt.err)
			if info.Kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %s, want %s", tt.err, info.Kind, tt.wantKind)
			}
			if info.SQLState != "" {
				t.Errorf("Classify() sqlState = %q, want empty for message-only errors", info.SQLState)
			}
		})
	}
}

func TestClassify_DeadlineAndWrapped(t *testing.T) {
	if kind := database.Classify(context.DeadlineExceeded).Kind; kind != domain.DBErrTimeout {
		t.Errorf("Classify(DeadlineExceeded) = %s, want timeout", kind)
	}

	wrapped := fmt.Errorf("run query: %w", &pq.Error{Code: "28P01", Message: "password authentication failed"})
	if kind := database.Classify(wrapped).Kind; kind != domain.DBErrAuthFailed {
		t.Errorf("Classify(wrapped pq error) = %s, want auth_failed", kind)
	}
}

func TestClassify_ErrorCodeMapping(t *testing.T) {
	info := database.Classify(&pq.Error{Code: "28P01", Message: "nope"})
	if code := info.ErrorCode(); code != domain.ErrAuthFailed {
		t.Errorf("ErrorCode() = %s, want auth_failed", code)
	}
}

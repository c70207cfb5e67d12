package database //nolint:testpackage // testing unexported helpers (sanitize, equality)

import (
	"errors"
	"strings"
	"testing"

	"github.com/jonesrussell/storefront-admin/internal/domain"
)

func TestSanitizeField_Text(t *testing.T) {
	spec := ColumnSpec{Field: "title", Column: "title", Kind: KindText, MaxLen: 10}

	tests := []struct {
		name    string
		raw     any
		want    any
		wantErr bool
	}{
		{"plain", "hello", "hello", false},
		{"trimmed", "  hello  ", "hello", false},
		{"at max length", "exactly10!", "exactly10!", false},
		{"over max length", "elevenchars", nil, true},
		{"not a string", 42, nil, true},
		{"nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeField(spec, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sanitizeField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var fieldErr *domain.FieldError
				if !errors.As(err, &fieldErr) {
					t.Fatalf("error type = %T, want *FieldError", err)
				}
				if fieldErr.Field != "title" {
					t.Errorf("FieldError.Field = %q, want title", fieldErr.Field)
				}
				return
			}
			if got != tt.want {
				t.Errorf("sanitizeField() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeField_URL(t *testing.T) {
	spec := ColumnSpec{Field: "image_url", Column: "image_url", Kind: KindURL}

	tests := []struct {
		name    string
		raw     any
		wantErr bool
	}{
		{"https", "https://cdn.example.com/a.jpg", false},
		{"http", "http://cdn.example.com/a.jpg", false},
		{"with whitespace", "  https://cdn.example.com/a.jpg  ", false},
		{"no scheme", "cdn.example.com/a.jpg", true},
		{"ftp scheme", "ftp://cdn.example.com/a.jpg", true},
		{"not a string", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitizeField(spec, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("sanitizeField(%v) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeField_Number(t *testing.T) {
	spec := ColumnSpec{Field: "price_amount", Column: "price_amount", Kind: KindNumber}

	tests := []struct {
		name    string
		raw     any
		want    float64
		wantErr bool
	}{
		{"float", 19.99, 19.99, false},
		{"int", 20, 20, false},
		{"numeric string", "19.99", 19.99, false},
		{"numeric string with space", " 19.99 ", 19.99, false},
		{"non-numeric string", "lots", 0, true},
		{"bool", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeField(spec, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sanitizeField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("sanitizeField() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeField_Array(t *testing.T) {
	spec := ColumnSpec{Field: "tags", Column: "tags", Kind: KindArray}

	tests := []struct {
		name    string
		raw     any
		want    string
		wantErr bool
	}{
		{"strings kept", []any{"a", "b"}, `["a","b"]`, false},
		{"blank entries dropped", []any{"a", "  ", ""}, `["a"]`, false},
		{"non-strings dropped", []any{"a", 1, true, nil}, `["a"]`, false},
		{"entries trimmed", []any{" a ", "b"}, `["a","b"]`, false},
		{"string slice accepted", []string{"x", "y"}, `["x","y"]`, false},
		{"empty array", []any{}, `[]`, false},
		{"not an array", "a,b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeField(spec, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sanitizeField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("sanitizeField() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueChanged(t *testing.T) {
	tests := []struct {
		name     string
		kind     ColumnKind
		existing any
		incoming any
		want     bool
	}{
		{"text equal", KindText, "hello", "hello", false},
		{"text differs", KindText, "hello", "world", true},
		{"text existing bytes", KindText, []byte("hello"), "hello", false},
		{"number equal across types", KindNumber, "19.99", 19.99, false},
		{"number stored as bytes", KindNumber, []byte("19.99"), 19.99, false},
		{"number differs", KindNumber, "19.99", 21.00, true},
		{"array same structure", KindArray, `["a","b"]`, `["a","b"]`, false},
		{"array whitespace in stored json", KindArray, `[ "a", "b" ]`, `["a","b"]`, false},
		{"array differs", KindArray, `["a"]`, `["a","b"]`, true},
		{"json same structure reordered", KindJSON, `{"a":1,"b":2}`, `{"b":2,"a":1}`, false},
		{"json differs", KindJSON, `{"a":1}`, `{"a":2}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueChanged(tt.kind, tt.existing, tt.incoming); got != tt.want {
				t.Errorf("valueChanged(%s, %v, %v) = %v, want %v",
					tt.kind, tt.existing, tt.incoming, got, tt.want)
			}
		})
	}
}

func TestProductTableSpec_AllowList(t *testing.T) {
	spec := ProductTableSpec()
	fields := make(map[string]bool, len(spec.Columns))
	for _, col := range spec.Columns {
		fields[col.Field] = true
	}

	// Fields that must never be updatable through the admin payload.
	for _, banned := range []string{"id", "slug", "published", "created_at", "updated_at"} {
		if fields[banned] {
			t.Errorf("field %q must not be in the product allow-list", banned)
		}
	}
	if !fields["price_amount"] || !fields["tags"] {
		t.Error("expected price_amount and tags in the product allow-list")
	}
	if !strings.EqualFold(spec.KeyColumn, "slug") {
		t.Errorf("KeyColumn = %q, want slug", spec.KeyColumn)
	}
}

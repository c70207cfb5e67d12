package database

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/storefront-admin/internal/domain"
)

// ColumnKind selects the validation and equality rules for a column.
type ColumnKind string

const (
	// KindText is a plain bounded string column.
	KindText ColumnKind = "text"
	// KindURL is a string column that must be an absolute http(s) URL.
	KindURL ColumnKind = "url"
	// KindNumber is a numeric column compared by numeric value.
	KindNumber ColumnKind = "number"
	// KindArray is a JSONB column holding an array of strings.
	KindArray ColumnKind = "array"
	// KindJSON is a JSONB column compared by parsed structure.
	KindJSON ColumnKind = "json"
)

// ColumnSpec declares one updatable column: the payload field that feeds it,
// the column name, and the validation rules. Payload fields with no spec are
// never staged, which is what keeps the update surface an allow-list.
type ColumnSpec struct {
	Field  string
	Column string
	Kind   ColumnKind
	MaxLen int
}

// TableSpec declares an updatable table. Resolved once at startup.
type TableSpec struct {
	Table       string
	KeyColumn   string
	TouchColumn string
	Columns     []ColumnSpec
}

// UpdateResult is the outcome of an UpdateRow call.
type UpdateResult struct {
	Found        bool
	RowsAffected int64
	Row          map[string]any
}

var urlPattern = regexp.MustCompile(`^https?://`)

// UpdateRow selects the keyed row FOR UPDATE, stages only the allow-listed
// fields whose values actually differ, and applies them in a single UPDATE
// with a last-modified touch. Submitting values identical to the current row
// is a no-op: found with zero rows affected and no write issued.
func UpdateRow(ctx context.Context, tx *sqlx.Tx, spec TableSpec, key string, payload map[string]any) (*UpdateResult, error) {
	selectForUpdate := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = $1 FOR UPDATE", spec.Table, spec.KeyColumn,
	)
	existing, err := selectRowMap(ctx, tx, selectForUpdate, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &UpdateResult{Found: false}, nil
	}

	var (
		setColumns []string
		args       []any
	)
	// A staged key column (slug rename) moves the row, so the re-select
	// below must use the new key.
	reselectKey := any(key)
	for _, col := range spec.Columns {
		raw, present := payload[col.Field]
		if !present {
			continue
		}
		value, err := sanitizeField(col, raw)
		if err != nil {
			return nil, err
		}
		if !valueChanged(col.Kind, existing[col.Column], value) {
			continue
		}
		if col.Column == spec.KeyColumn {
			reselectKey = value
		}
		args = append(args, value)
		setColumns = append(setColumns, fmt.Sprintf("%s = $%d", col.Column, len(args)))
	}

	if len(setColumns) == 0 {
		return &UpdateResult{Found: true, RowsAffected: 0, Row: existing}, nil
	}

	if spec.TouchColumn != "" {
		setColumns = append(setColumns, spec.TouchColumn+" = NOW()")
	}
	args = append(args, key)
	update := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		spec.Table, strings.Join(setColumns, ", "), spec.KeyColumn, len(args),
	)

	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", spec.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	reselect := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", spec.Table, spec.KeyColumn)
	refreshed, err := selectRowMap(ctx, tx, reselect, reselectKey)
	if err != nil {
		return nil, err
	}

	return &UpdateResult{Found: true, RowsAffected: affected, Row: refreshed}, nil
}

// selectRowMap returns the single matching row as a map, or nil when absent.
func selectRowMap(ctx context.Context, tx *sqlx.Tx, query string, key any) (map[string]any, error) {
	rows, err := tx.QueryxContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("select row: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("select row: %w", err)
		}
		return nil, nil
	}

	row := make(map[string]any)
	if err := rows.MapScan(row); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row, nil
}

// sanitizeField validates a payload value against its column spec and
// returns the normalized value to write. Validation failures name the field
// and never silently truncate or coerce.
func sanitizeField(col ColumnSpec, raw any) (any, error) {
	switch col.Kind {
	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, &domain.FieldError{Field: col.Field, Message: "must be a string"}
		}
		s = strings.TrimSpace(s)
		if col.MaxLen > 0 && len(s) > col.MaxLen {
			return nil, &domain.FieldError{
				Field:   col.Field,
				Message: fmt.Sprintf("exceeds maximum length of %d", col.MaxLen),
			}
		}
		return s, nil

	case KindURL:
		s, ok := raw.(string)
		if !ok {
			return nil, &domain.FieldError{Field: col.Field, Message: "must be a string"}
		}
		s = strings.TrimSpace(s)
		if !urlPattern.MatchString(s) {
			return nil, &domain.FieldError{Field: col.Field, Message: "must start with http:// or https://"}
		}
		return s, nil

	case KindNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, &domain.FieldError{Field: col.Field, Message: "must be numeric"}
		}
		return f, nil

	case KindArray:
		items, ok := raw.([]any)
		if !ok {
			if strs, okStr := raw.([]string); okStr {
				items = make([]any, len(strs))
				for i, s := range strs {
					items[i] = s
				}
			} else {
				return nil, &domain.FieldError{Field: col.Field, Message: "must be an array"}
			}
		}
		// Keep only non-blank strings; everything else is dropped.
		kept := make([]string, 0, len(items))
		for _, item := range items {
			s, okStr := item.(string)
			if !okStr {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			kept = append(kept, s)
		}
		encoded, err := json.Marshal(kept)
		if err != nil {
			return nil, &domain.FieldError{Field: col.Field, Message: "cannot serialize"}
		}
		return string(encoded), nil

	case KindJSON:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, &domain.FieldError{Field: col.Field, Message: "cannot serialize"}
		}
		return string(encoded), nil

	default:
		return nil, &domain.FieldError{Field: col.Field, Message: "unsupported column kind"}
	}
}

// valueChanged applies value-typed equality: numbers compare numerically,
// JSON kinds compare by parsed structure, everything else by exact string
// equality. Unchanged values are never staged.
func valueChanged(kind ColumnKind, existing, incoming any) bool {
	switch kind {
	case KindNumber:
		existingF, okA := toFloat(existing)
		incomingF, okB := toFloat(incoming)
		if okA && okB {
			return existingF != incomingF
		}
		return !reflect.DeepEqual(existing, incoming)

	case KindArray, KindJSON:
		return !jsonEqual(existing, incoming)

	default:
		return stringValue(existing) != stringValue(incoming)
	}
}

func jsonEqual(a, b any) bool {
	var parsedA, parsedB any
	if err := json.Unmarshal([]byte(stringValue(a)), &parsedA); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(stringValue(b)), &parsedB); err != nil {
		return false
	}
	return reflect.DeepEqual(parsedA, parsedB)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/logger"
)

// ProductStore updates product rows through the allow-listed updater.
type ProductStore struct {
	db   *sqlx.DB
	log  logger.Logger
	spec TableSpec
}

// NewProductStore creates a product store.
func NewProductStore(db *sqlx.DB, log logger.Logger) *ProductStore {
	return &ProductStore{db: db, log: log, spec: ProductTableSpec()}
}

// UpdateBySlug applies an allow-listed payload to the product with the given
// slug inside a transaction. Category references are verified before any
// write, and a slug rename is rejected while the row is published.
func (s *ProductStore) UpdateBySlug(ctx context.Context, slug string, payload map[string]any) (*UpdateResult, error) {
	var result *UpdateResult
	err := RunTransaction(ctx, s.db, s.log, func(tx *sqlx.Tx) error {
		if category, ok := payload["category_slug"].(string); ok {
			exists, err := categoryExists(ctx, tx, category)
			if err != nil {
				return err
			}
			if !exists {
				return domain.NewCodedError(domain.ErrCategoryNotFound, "category %q does not exist", category)
			}
		}

		if _, renaming := payload["new_slug"]; renaming {
			published, err := rowPublished(ctx, tx, s.spec.Table, slug)
			if err != nil {
				return err
			}
			if published {
				return domain.NewCodedError(domain.ErrSlugLocked, "cannot rename slug of a published product")
			}
		}

		var err error
		result, err = UpdateRow(ctx, tx, s.spec, slug, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PostStore updates blog post rows through the allow-listed updater.
type PostStore struct {
	db   *sqlx.DB
	log  logger.Logger
	spec TableSpec
}

// NewPostStore creates a post store.
func NewPostStore(db *sqlx.DB, log logger.Logger) *PostStore {
	return &PostStore{db: db, log: log, spec: PostTableSpec()}
}

// UpdateBySlug applies an allow-listed payload to the post with the given
// slug inside a transaction. Slug renames are rejected while published.
func (s *PostStore) UpdateBySlug(ctx context.Context, slug string, payload map[string]any) (*UpdateResult, error) {
	var result *UpdateResult
	err := RunTransaction(ctx, s.db, s.log, func(tx *sqlx.Tx) error {
		if _, renaming := payload["new_slug"]; renaming {
			published, err := rowPublished(ctx, tx, s.spec.Table, slug)
			if err != nil {
				return err
			}
			if published {
				return domain.NewCodedError(domain.ErrSlugLocked, "cannot rename slug of a published post")
			}
		}

		var err error
		result, err = UpdateRow(ctx, tx, s.spec, slug, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func categoryExists(ctx context.Context, tx *sqlx.Tx, slug string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)"
	if err := tx.QueryRowxContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}

func rowPublished(ctx context.Context, tx *sqlx.Tx, table, slug string) (bool, error) {
	var published bool
	query := fmt.Sprintf("SELECT COALESCE(published, FALSE) FROM %s WHERE slug = $1", table)
	err := tx.QueryRowxContext(ctx, query, slug).Scan(&published)
	if errors.Is(err, sql.ErrNoRows) {
		// Row absence is handled by UpdateRow's found:false path.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check published: %w", err)
	}
	return published, nil
}

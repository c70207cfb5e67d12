package database

const (
	maxTitleLen       = 255
	maxSlugLen        = 190
	maxExcerptLen     = 500
	maxDescriptionLen = 10000
)

// ProductTableSpec declares the updatable surface of the products table.
// Payload fields outside this list are silently ignored.
func ProductTableSpec() TableSpec {
	return TableSpec{
		Table:       "products",
		KeyColumn:   "slug",
		TouchColumn: "updated_at",
		Columns: []ColumnSpec{
			{Field: "title", Column: "title", Kind: KindText, MaxLen: maxTitleLen},
			{Field: "new_slug", Column: "slug", Kind: KindText, MaxLen: maxSlugLen},
			{Field: "description", Column: "description", Kind: KindText, MaxLen: maxDescriptionLen},
			{Field: "price_amount", Column: "price_amount", Kind: KindNumber},
			{Field: "price_currency", Column: "price_currency", Kind: KindText, MaxLen: 3},
			{Field: "image_url", Column: "image_url", Kind: KindURL},
			{Field: "affiliate_url", Column: "affiliate_url", Kind: KindURL},
			{Field: "category_slug", Column: "category_slug", Kind: KindText, MaxLen: maxSlugLen},
			{Field: "tags", Column: "tags", Kind: KindArray},
			{Field: "attributes", Column: "attributes", Kind: KindJSON},
		},
	}
}

// PostTableSpec declares the updatable surface of the blog posts table.
func PostTableSpec() TableSpec {
	return TableSpec{
		Table:       "posts",
		KeyColumn:   "slug",
		TouchColumn: "updated_at",
		Columns: []ColumnSpec{
			{Field: "title", Column: "title", Kind: KindText, MaxLen: maxTitleLen},
			{Field: "new_slug", Column: "slug", Kind: KindText, MaxLen: maxSlugLen},
			{Field: "excerpt", Column: "excerpt", Kind: KindText, MaxLen: maxExcerptLen},
			{Field: "body", Column: "body", Kind: KindText},
			{Field: "cover_image_url", Column: "cover_image_url", Kind: KindURL},
			{Field: "tags", Column: "tags", Kind: KindArray},
		},
	}
}

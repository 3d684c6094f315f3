package domain

import "context"

// TaxRowStore archives emitted tax rows so repeated runs over the same account
// and year stay idempotent. Implemented by the optional Postgres store.
type TaxRowStore interface {
	InsertRows(ctx context.Context, accountID string, year int, rows []TaxRow) error
}

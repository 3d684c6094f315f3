package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quantfm/stellartax/internal/domain"
)

// TaxRowStore implements domain.TaxRowStore using PostgreSQL.
type TaxRowStore struct {
	pool *pgxpool.Pool
}

// NewTaxRowStore creates a new TaxRowStore backed by the given connection pool.
func NewTaxRowStore(pool *pgxpool.Pool) *TaxRowStore {
	return &TaxRowStore{pool: pool}
}

// InsertRows batch-inserts tax rows using pgx Batch. Rows whose transaction id
// already exists for the account are silently skipped via ON CONFLICT DO
// NOTHING, so re-running a report is idempotent.
func (s *TaxRowStore) InsertRows(ctx context.Context, accountID string, year int, rows []domain.TaxRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO tax_rows (
			account_id, tax_year, trade_date, event, asset,
			amount, value_usd, transaction_id, link
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		) ON CONFLICT DO NOTHING`

	for _, r := range rows {
		batch.Queue(query,
			accountID, year, r.Date, r.Event, r.Asset,
			numericParam(r.Amount), numericParam(r.Value),
			r.TransactionID, r.Link,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert tax row batch item %d: %w", i, err)
		}
	}
	return nil
}

// numericParam renders an optional decimal as a NUMERIC parameter, mapping the
// absent case to SQL NULL.
func numericParam(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

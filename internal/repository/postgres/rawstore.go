package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/alkana/warehouse-go/internal/domain"
)

// Outcome of a single raw-row write.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
)

// RawStore writes and reads the raw_* staging tables. Column sets vary
// per source, so writes are built dynamically with squirrel from the
// loaders' column maps.
type RawStore struct {
	db *DB
	sb sq.StatementBuilderType
}

func NewRawStore(db *DB) *RawStore {
	return &RawStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert appends one row without any duplicate checks (insert mode).
func (s *RawStore) Insert(ctx context.Context, table string, record map[string]interface{}) error {
	query, args, err := s.sb.Insert(table).SetMap(record).ToSql()
	if err != nil {
		return fmt.Errorf("build insert for %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// Upsert writes one row by business key with change detection:
// identical content (same row_hash) is skipped, an existing business key
// with different content is fully updated, anything else is inserted.
func (s *RawStore) Upsert(ctx context.Context, table string, businessKey map[string]interface{}, record map[string]interface{}, rowHash string) (Outcome, error) {
	var existingID int64
	err := s.db.GetContext(ctx, &existingID,
		fmt.Sprintf("SELECT id FROM %s WHERE row_hash = $1 LIMIT 1", table), rowHash)
	if err == nil {
		return OutcomeSkipped, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("hash lookup in %s: %w", table, err)
	}

	query, args, err := s.sb.Select("id").From(table).Where(sq.Eq(businessKey)).Limit(1).ToSql()
	if err != nil {
		return "", fmt.Errorf("build key lookup for %s: %w", table, err)
	}
	err = s.db.GetContext(ctx, &existingID, query, args...)
	switch {
	case err == nil:
		update, uargs, err := s.sb.Update(table).SetMap(record).Where(sq.Eq{"id": existingID}).ToSql()
		if err != nil {
			return "", fmt.Errorf("build update for %s: %w", table, err)
		}
		if _, err := s.db.ExecContext(ctx, update, uargs...); err != nil {
			return "", fmt.Errorf("update %s id=%d: %w", table, existingID, err)
		}
		return OutcomeUpdated, nil
	case errors.Is(err, sql.ErrNoRows):
		if err := s.Insert(ctx, table, record); err != nil {
			return "", err
		}
		return OutcomeInserted, nil
	default:
		return "", fmt.Errorf("key lookup in %s: %w", table, err)
	}
}

// Truncate clears one raw table before a full reload.
func (s *RawStore) Truncate(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// Typed fetches used by the transformers.

func (s *RawStore) FetchProduction(ctx context.Context) ([]domain.RawProduction, error) {
	var rows []domain.RawProduction
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_cooispi ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchMovements(ctx context.Context) ([]domain.RawMovement, error) {
	var rows []domain.RawMovement
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_mb51 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchPurchases(ctx context.Context) ([]domain.RawPurchase, error) {
	var rows []domain.RawPurchase
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrmm024 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchBilling(ctx context.Context) ([]domain.RawBilling, error) {
	var rows []domain.RawBilling
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrsd002 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchDeliveries(ctx context.Context) ([]domain.RawDelivery, error) {
	var rows []domain.RawDelivery
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrsd004 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchMaterialChannels(ctx context.Context) ([]domain.RawMaterialChannel, error) {
	var rows []domain.RawMaterialChannel
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrsd006 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchARAging(ctx context.Context) ([]domain.RawARAging, error) {
	var rows []domain.RawARAging
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrfi005 ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchTargets(ctx context.Context) ([]domain.RawTarget, error) {
	var rows []domain.RawTarget
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_target ORDER BY id`)
	return rows, err
}

func (s *RawStore) FetchPerformance(ctx context.Context) ([]domain.RawPerformance, error) {
	var rows []domain.RawPerformance
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM raw_zrpp062 ORDER BY id`)
	return rows, err
}

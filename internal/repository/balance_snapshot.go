package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"biwenger-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const insertSnapshotRow = `
INSERT INTO balance_snapshots (
    id, taken_at, user_name, points, team_value, team_size,
    income, expenses, bonuses, balance, max_bid
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectHistory = `
SELECT id, taken_at, user_name, points, team_value, team_size,
       income, expenses, bonuses, balance, max_bid
FROM balance_snapshots
WHERE (? = '' OR user_name = ?)
ORDER BY taken_at DESC, user_name
LIMIT ?`

type BalanceSnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBalanceSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *BalanceSnapshotRepository {
	return &BalanceSnapshotRepository{db: sqlDB, logger: logger}
}

// Save stores one balance sheet under a fresh snapshot id and returns the id.
func (r *BalanceSnapshotRepository) Save(ctx context.Context, takenAt time.Time, records []domain.BalanceRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSnapshotRow)
	if err != nil {
		return "", fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	takenAt = takenAt.UTC()
	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			id, takenAt, rec.User, rec.Points, rec.TeamValue, rec.TeamSize,
			rec.Income, rec.Expenses, rec.Bonuses, rec.Balance, rec.MaxBid,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert snapshot row for %s: %w", rec.User, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	r.logger.Debug().Str("snapshot_id", id).Int("rows", len(records)).Msg("balance snapshot saved")
	return id, nil
}

// History lists archived rows newest first. An empty user returns every user.
func (r *BalanceSnapshotRepository) History(ctx context.Context, user string, limit int) ([]domain.BalanceSnapshotRow, error) {
	rows, err := r.db.QueryContext(ctx, selectHistory, user, user, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	var result []domain.BalanceSnapshotRow
	for rows.Next() {
		var row domain.BalanceSnapshotRow
		rec := &row.Record
		if err := rows.Scan(
			&row.SnapshotID, &row.TakenAt, &rec.User, &rec.Points, &rec.TeamValue, &rec.TeamSize,
			&rec.Income, &rec.Expenses, &rec.Bonuses, &rec.Balance, &rec.MaxBid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mclemoreauction/neighbor-letters/internal/domain"
)

// ScanRepo records QR code scans in qr_scans.
type ScanRepo struct{ db *sql.DB }

// NewScanRepo creates a Postgres-backed scan repository.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

// Record inserts one scan event.
func (r *ScanRepo) Record(ctx context.Context, ev *domain.ScanEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_scans (id, auction_code, user_agent, referer, scanned_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, ev.ID, ev.AuctionCode, ev.UserAgent, ev.Referer)
	if err != nil {
		return "", fmt.Errorf("record scan: %w", err)
	}
	return ev.ID, nil
}

// CountsBetween aggregates scans per auction code over [from, to), most
// scanned first.
func (r *ScanRepo) CountsBetween(ctx context.Context, from, to time.Time) ([]domain.ScanCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT auction_code, COUNT(*)
		FROM qr_scans
		WHERE scanned_at >= $1 AND scanned_at < $2
		GROUP BY auction_code
		ORDER BY COUNT(*) DESC, auction_code
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}
	defer rows.Close()

	var out []domain.ScanCount
	for rows.Next() {
		var c domain.ScanCount
		if err := rows.Scan(&c.AuctionCode, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TotalForAuction returns the all-time scan count for one auction.
func (r *ScanRepo) TotalForAuction(ctx context.Context, auctionCode string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM qr_scans WHERE auction_code = $1
	`, auctionCode).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("total scans: %w", err)
	}
	return n, nil
}

// EnsureSchema creates the audit tables when missing. Deployments run
// without migrations; the tool owns its two tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS letters_sent (
			id            TEXT PRIMARY KEY,
			auction_code  TEXT NOT NULL,
			campaign_id   TEXT,
			creative_id   TEXT,
			upload_id     TEXT,
			address_count INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL,
			failed_stage  TEXT,
			error_detail  TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_letters_sent_auction ON letters_sent (auction_code, created_at)`,
		`CREATE TABLE IF NOT EXISTS qr_scans (
			id           TEXT PRIMARY KEY,
			auction_code TEXT NOT NULL,
			user_agent   TEXT,
			referer      TEXT,
			scanned_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_qr_scans_auction ON qr_scans (auction_code, scanned_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

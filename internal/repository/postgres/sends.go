// Package postgres implements the audit and scan-tracking repositories
// against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mclemoreauction/neighbor-letters/internal/domain"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SendRepo records letter-submission attempts in letters_sent.
type SendRepo struct{ db *sql.DB }

// NewSendRepo creates a Postgres-backed send audit repository.
func NewSendRepo(db *sql.DB) *SendRepo { return &SendRepo{db: db} }

// Record inserts one submission attempt. The ID is generated when absent.
func (r *SendRepo) Record(ctx context.Context, rec *domain.SendRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO letters_sent
			(id, auction_code, campaign_id, creative_id, upload_id,
			 address_count, status, failed_stage, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`, rec.ID, rec.AuctionCode, rec.CampaignID, rec.CreativeID, rec.UploadID,
		rec.AddressCount, rec.Status, rec.FailedStage, rec.ErrorDetail)
	if err != nil {
		return "", fmt.Errorf("record send: %w", err)
	}
	return rec.ID, nil
}

// History returns the submission attempts for one auction, newest first.
func (r *SendRepo) History(ctx context.Context, auctionCode string) ([]domain.SendRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auction_code, campaign_id, creative_id, upload_id,
		       address_count, status, COALESCE(failed_stage,''), COALESCE(error_detail,''), created_at
		FROM letters_sent
		WHERE auction_code = $1
		ORDER BY created_at DESC
	`, auctionCode)
	if err != nil {
		return nil, fmt.Errorf("list sends: %w", err)
	}
	defer rows.Close()

	var out []domain.SendRecord
	for rows.Next() {
		var rec domain.SendRecord
		if err := rows.Scan(
			&rec.ID, &rec.AuctionCode, &rec.CampaignID, &rec.CreativeID, &rec.UploadID,
			&rec.AddressCount, &rec.Status, &rec.FailedStage, &rec.ErrorDetail, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan send record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastSuccessful returns the most recent successful send for an auction.
func (r *SendRepo) LastSuccessful(ctx context.Context, auctionCode string) (*domain.SendRecord, error) {
	rec := &domain.SendRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, auction_code, campaign_id, creative_id, upload_id,
		       address_count, status, COALESCE(failed_stage,''), COALESCE(error_detail,''), created_at
		FROM letters_sent
		WHERE auction_code = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, auctionCode, domain.SendStatusSent).Scan(
		&rec.ID, &rec.AuctionCode, &rec.CampaignID, &rec.CreativeID, &rec.UploadID,
		&rec.AddressCount, &rec.Status, &rec.FailedStage, &rec.ErrorDetail, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get last send: %w", err)
	}
	return rec, nil
}

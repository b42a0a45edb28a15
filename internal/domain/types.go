// Package domain holds the persisted record types shared across services.
package domain

import "time"

// Send statuses recorded in the letters_sent audit table.
const (
	SendStatusSent   = "sent"
	SendStatusFailed = "failed"
)

// SendRecord is one letter-submission attempt, successful or not. Failed
// attempts keep the stage and error so the operator can pick up where Lob
// left off.
type SendRecord struct {
	ID           string    `json:"id"`
	AuctionCode  string    `json:"auction_code"`
	CampaignID   string    `json:"campaign_id"`
	CreativeID   string    `json:"creative_id"`
	UploadID     string    `json:"upload_id"`
	AddressCount int       `json:"address_count"`
	Status       string    `json:"status"`
	FailedStage  string    `json:"failed_stage,omitempty"`
	ErrorDetail  string    `json:"error_detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScanEvent is one QR code scan.
type ScanEvent struct {
	ID          string    `json:"id"`
	AuctionCode string    `json:"auction_code"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Referer     string    `json:"referer,omitempty"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// ScanCount is a per-auction aggregate for the daily report.
type ScanCount struct {
	AuctionCode string `json:"auction_code"`
	Count       int    `json:"count"`
}

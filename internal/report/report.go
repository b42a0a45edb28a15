// Package report builds and emails the daily QR scan summary.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mclemoreauction/neighbor-letters/internal/domain"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// ScanSource provides per-auction scan counts for a time window.
type ScanSource interface {
	CountsBetween(ctx context.Context, from, to time.Time) ([]domain.ScanCount, error)
}

// Mailer delivers the report.
type Mailer interface {
	Send(subject, body string) error
}

// Reporter assembles and sends the daily summary.
type Reporter struct {
	scans  ScanSource
	mailer Mailer
}

// NewReporter builds a reporter.
func NewReporter(scans ScanSource, mailer Mailer) *Reporter {
	return &Reporter{scans: scans, mailer: mailer}
}

// SendDaily reports scans for the UTC day containing t. Days with no scans
// send nothing.
func (r *Reporter) SendDaily(ctx context.Context, t time.Time) error {
	from := t.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	counts, err := r.scans.CountsBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load scan counts: %w", err)
	}

	if len(counts) == 0 {
		logger.Info("report: no QR scans to report", "day", from.Format("2006-01-02"))
		return nil
	}

	subject := "Daily QR Code Scan Report"
	body := FormatBody(from, counts)

	if err := r.mailer.Send(subject, body); err != nil {
		return fmt.Errorf("failed to send scan report: %w", err)
	}
	logger.Info("report: sent daily scan report", "day", from.Format("2006-01-02"), "auctions", len(counts))
	return nil
}

// FormatBody renders the plaintext report.
func FormatBody(day time.Time, counts []domain.ScanCount) string {
	var sb strings.Builder
	sb.WriteString("Daily QR Code Scan Report for " + day.Format("2006-01-02") + ":\n\n")
	total := 0
	for _, c := range counts {
		fmt.Fprintf(&sb, "Auction Code: %s, Scans: %d\n", c.AuctionCode, c.Count)
		total += c.Count
	}
	fmt.Fprintf(&sb, "\nTotal scans: %d\n", total)
	return sb.String()
}

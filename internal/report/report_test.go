package report

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/domain"
)

type fixedSource struct {
	counts []domain.ScanCount
	err    error
	from   time.Time
	to     time.Time
}

func (f *fixedSource) CountsBetween(ctx context.Context, from, to time.Time) ([]domain.ScanCount, error) {
	f.from, f.to = from, to
	return f.counts, f.err
}

type recordingMailer struct {
	subject string
	body    string
	sent    int
}

func (m *recordingMailer) Send(subject, body string) error {
	m.subject, m.body = subject, body
	m.sent++
	return nil
}

func TestSendDaily(t *testing.T) {
	source := &fixedSource{counts: []domain.ScanCount{
		{AuctionCode: "2524", Count: 7},
		{AuctionCode: "2525", Count: 3},
	}}
	mailer := &recordingMailer{}

	day := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	require.NoError(t, NewReporter(source, mailer).SendDaily(context.Background(), day))

	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, "Daily QR Code Scan Report", mailer.subject)
	assert.Contains(t, mailer.body, "2025-06-15")
	assert.Contains(t, mailer.body, "Auction Code: 2524, Scans: 7")
	assert.Contains(t, mailer.body, "Total scans: 10")

	// Window is the full UTC day containing the input time.
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), source.from)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), source.to)
}

func TestSendDaily_NoScansNoEmail(t *testing.T) {
	mailer := &recordingMailer{}
	err := NewReporter(&fixedSource{}, mailer).SendDaily(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, mailer.sent)
}

func TestSendDaily_SourceError(t *testing.T) {
	mailer := &recordingMailer{}
	reporter := NewReporter(&fixedSource{err: errors.New("db down")}, mailer)
	err := reporter.SendDaily(context.Background(), time.Now())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, mailer.sent)
}

func TestScheduler_NextRun(t *testing.T) {
	s := NewScheduler(nil, 22)

	before := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC), s.nextRun(before))

	at := time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 16, 22, 0, 0, 0, time.UTC), s.nextRun(at))

	after := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 16, 22, 0, 0, 0, time.UTC), s.nextRun(after))
}

func TestSMTPMailer_MessageShape(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer(config.ReportConfig{
		SMTPHost: "smtp.gmail.com", SMTPPort: 587,
		SMTPUsername: "u", SMTPPassword: "p",
		From: "reports@mclemoreauction.com",
		To:   "will@mclemoreauction.com,office@mclemoreauction.com",
	})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send("Subject line", "body text"))
	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, "reports@mclemoreauction.com", gotFrom)
	assert.Equal(t, []string{"will@mclemoreauction.com", "office@mclemoreauction.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Subject line\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nbody text")
}

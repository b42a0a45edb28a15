package letters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/mclemoreauction/neighbor-letters/internal/auctionapi"
	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
	"github.com/mclemoreauction/neighbor-letters/internal/lob"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

const (
	baseAuctionURL    = "https://www.mclemoreauction.com"
	signatureImageURL = "https://www.mclemoreauction.com/assets/images/will-signature.png"
)

// sampleRecord fills recipient placeholders in previews.
var sampleRecord = csvproc.AddressRecord{
	Name:    "John Q. Neighbor",
	Address: "123 Sample Street",
	City:    "Columbia",
	State:   "TN",
	Zip:     "38401",
}

// Service ties template storage, auction metadata, and rendering together.
type Service struct {
	store   Store
	auction auctionapi.Fetcher
	engine  *liquid.Engine
}

// NewService builds the letter service.
func NewService(store Store, auction auctionapi.Fetcher) *Service {
	return &Service{
		store:   store,
		auction: auction,
		engine:  liquid.NewEngine(),
	}
}

// Template returns the stored template for the auction, generating a default
// one from auction details when nothing is saved yet.
func (s *Service) Template(ctx context.Context, auctionCode string) (string, error) {
	tmpl, err := s.store.GetTemplate(auctionCode)
	if err == nil {
		return tmpl, nil
	}
	if err != ErrNoTemplate {
		return "", err
	}

	details, err := s.auction.GetAuction(ctx, auctionCode)
	if err != nil {
		return "", fmt.Errorf("failed to build default letter: %w", err)
	}
	return DefaultLetter(details), nil
}

// SaveTemplate validates the merge tokens and persists the template. A
// template missing placeholders is rejected here rather than at send time.
func (s *Service) SaveTemplate(auctionCode, letterHTML string) error {
	if err := lob.ValidatePlaceholders(letterHTML); err != nil {
		return err
	}
	if err := s.store.SaveTemplate(auctionCode, letterHTML); err != nil {
		return err
	}
	logger.Info("letters: template saved", "auction_code", auctionCode)
	return nil
}

// Preview renders the auction's template with live auction details and a
// sample recipient, showing the letter as it will print.
func (s *Service) Preview(ctx context.Context, auctionCode string) (string, error) {
	tmpl, err := s.Template(ctx, auctionCode)
	if err != nil {
		return "", err
	}
	details, err := s.auction.GetAuction(ctx, auctionCode)
	if err != nil {
		return "", err
	}
	return s.render(tmpl, details, sampleRecord)
}

// render fills all merge tokens via liquid.
func (s *Service) render(tmpl string, details *auctionapi.Details, rec csvproc.AddressRecord) (string, error) {
	bindings := map[string]interface{}{
		"name":             rec.Name,
		"address_line1":    rec.Address,
		"address_city":     rec.City,
		"address_state":    rec.State,
		"address_zip":      rec.Zip,
		"auction_title":    details.Title,
		"auction_date":     details.Date,
		"auction_time":     details.Time,
		"auction_location": details.Location,
	}
	out, err := s.engine.ParseAndRenderString(tmpl, bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render letter: %w", err)
	}
	return out, nil
}

// DefaultLetter builds the standard neighbor letter for an auction. All nine
// merge tokens are present, so the result always passes placeholder
// validation.
func DefaultLetter(details *auctionapi.Details) string {
	currentDate := time.Now().Format("January 2, 2006")

	// The close line always carries both tokens so the default template
	// passes placeholder validation even for auctions without a listed time.
	biddingEnd := "{{auction_date}} {{auction_time}}"

	var sb strings.Builder
	sb.WriteString("<p>" + currentDate + "</p>\n\n")
	sb.WriteString("<p>{{name}}<br>{{address_line1}}<br>{{address_city}}, {{address_state}} {{address_zip}}</p>\n\n")
	sb.WriteString("<p>RE: Upcoming Auction of <b>{{auction_title}}</b></p>\n\n")
	sb.WriteString("<p>Dear Sir or Madam:</p>\n\n")
	if details.Description != "" {
		sb.WriteString("<p>" + details.Description + "</p>\n\n")
	}
	sb.WriteString("<p>The property address is <b>{{auction_location}}.</b></p>\n\n")
	sb.WriteString("<p>Based on our research, you own real estate near the property we are selling.</p>\n\n")
	sb.WriteString(fmt.Sprintf(
		"<p>The auction will take place on our website at <b><a href=\"%s\">%s</a></b>. "+
			"You may register to bid at <b><a href=\"%s/register\">%s/register</a></b>.</p>\n\n",
		baseAuctionURL, baseAuctionURL, baseAuctionURL, baseAuctionURL))
	sb.WriteString("<p>Note: <b>This auction closes " + biddingEnd + ".</b></p>\n\n")
	sb.WriteString("<p>" + details.Manager.ContactLine() + " to schedule an appointment to view this property.</p>\n\n")
	sb.WriteString("<p><b>Please scan the QR code to visit our website.</b></p>\n\n")
	sb.WriteString("<ul class=\"signature-list\">\n")
	sb.WriteString("  <li class=\"signature-paragraph\">\n")
	sb.WriteString("    Yours Truly,<br>\n")
	sb.WriteString(fmt.Sprintf("    <img src=\"%s\" alt=\"Signature\" class=\"signature-image\"><br>\n", signatureImageURL))
	sb.WriteString("    <b>Will McLemore, CAI</b><br>\n")
	sb.WriteString("    <b><a href=\"mailto:will@mclemoreauction.com\">will@mclemoreauction.com</a> | (615) 636-9602</b>\n")
	sb.WriteString("  </li>\n")
	sb.WriteString("</ul>\n")
	return sb.String()
}

package lob

import (
	"context"
	"errors"

	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// API is the slice of the Lob client the submitter needs. Satisfied by
// *Client.
type API interface {
	CreateCampaign(ctx context.Context, auctionCode string) (string, error)
	CreateCreative(ctx context.Context, campaignID, auctionCode, letterHTML string, from FromAddress) (string, error)
	CreateUpload(ctx context.Context, campaignID string, addresses []Address) (string, error)
	SendCampaign(ctx context.Context, campaignID string) error
}

// SubmissionResult records the Lob object IDs created during a submission.
// Partial results accompany a SubmissionError: IDs for completed stages are
// populated so the campaign can be found in the dashboard.
type SubmissionResult struct {
	AuctionCode  string `json:"auction_code"`
	CampaignID   string `json:"campaign_id"`
	CreativeID   string `json:"creative_id"`
	UploadID     string `json:"upload_id"`
	AddressCount int    `json:"address_count"`
}

// Verifier runs Lob US address verification. Satisfied by *Client.
type Verifier interface {
	VerifyAddress(ctx context.Context, addr Address) (*Verification, error)
}

// Submitter drives the four-stage Lob submission chain.
type Submitter struct {
	api      API
	from     FromAddress
	verifier Verifier
}

// NewSubmitter builds a submitter sending from the given return address.
func NewSubmitter(api API, from FromAddress) *Submitter {
	return &Submitter{api: api, from: from}
}

// SetVerifier enables the pre-upload address verification pass.
func (s *Submitter) SetVerifier(v Verifier) {
	s.verifier = v
}

// Submit validates the template and runs campaign creation, creative
// creation, address upload, and send, in that order. Validation failures
// cost zero network calls. Stage failures return a SubmissionError naming
// the stage; earlier stages are not rolled back.
func (s *Submitter) Submit(ctx context.Context, auctionCode, letterHTML string, records []csvproc.AddressRecord) (*SubmissionResult, error) {
	result := &SubmissionResult{AuctionCode: auctionCode, AddressCount: len(records)}

	if err := ValidatePlaceholders(letterHTML); err != nil {
		return result, &SubmissionError{Stage: StageValidation, Err: err}
	}
	if len(records) == 0 {
		return result, &SubmissionError{Stage: StageValidation, Err: errors.New("no addresses to send to")}
	}

	addresses := toAddresses(records)
	if s.verifier != nil {
		if err := s.verifyAddresses(ctx, addresses); err != nil {
			return result, &SubmissionError{Stage: StageVerification, Err: err}
		}
	}

	campaignID, err := s.api.CreateCampaign(ctx, auctionCode)
	if err != nil {
		return result, &SubmissionError{Stage: StageCampaignCreation, Err: err}
	}
	result.CampaignID = campaignID

	creativeID, err := s.api.CreateCreative(ctx, campaignID, auctionCode, letterHTML, s.from)
	if err != nil {
		return result, &SubmissionError{Stage: StageCreativeCreation, CampaignID: campaignID, Err: err}
	}
	result.CreativeID = creativeID

	uploadID, err := s.api.CreateUpload(ctx, campaignID, addresses)
	if err != nil {
		return result, &SubmissionError{Stage: StageUpload, CampaignID: campaignID, Err: err}
	}
	result.UploadID = uploadID

	if err := s.api.SendCampaign(ctx, campaignID); err != nil {
		return result, &SubmissionError{Stage: StageSend, CampaignID: campaignID, Err: err}
	}

	logger.Info("lob: submission complete",
		"auction_code", auctionCode, "campaign_id", campaignID, "address_count", len(records))
	return result, nil
}

// verifyAddresses checks every recipient and reports all undeliverable ones
// at once, so one round of fixes suffices.
func (s *Submitter) verifyAddresses(ctx context.Context, addresses []Address) error {
	var undeliverable []string
	for _, addr := range addresses {
		v, err := s.verifier.VerifyAddress(ctx, addr)
		if err != nil {
			return err
		}
		if !v.Deliverable() {
			undeliverable = append(undeliverable,
				addr.Name+", "+addr.Line1+", "+addr.City+" "+addr.State+" "+addr.Zip)
		}
	}
	if len(undeliverable) > 0 {
		return &UndeliverableError{Addresses: undeliverable}
	}
	return nil
}

func toAddresses(records []csvproc.AddressRecord) []Address {
	addresses := make([]Address, len(records))
	for i, rec := range records {
		addresses[i] = Address{
			Name:  rec.Name,
			Line1: rec.Address,
			City:  rec.City,
			State: rec.State,
			Zip:   rec.Zip,
		}
	}
	return addresses
}

// Package lob is a client for the Lob direct-mail API and the letter
// submission workflow built on it.
package lob

import (
	"fmt"
	"strings"
)

// Submission stages, in execution order. A SubmissionError names the stage
// that failed so the operator knows how far the campaign got.
const (
	StageValidation       = "validation"
	StageVerification     = "verification"
	StageCampaignCreation = "campaign_creation"
	StageCreativeCreation = "creative_creation"
	StageUpload           = "upload"
	StageSend             = "send"
)

// SubmissionError wraps a failure in one stage of the submission chain.
// Stages already completed are NOT rolled back; the campaign is left
// inspectable in the Lob dashboard.
type SubmissionError struct {
	Stage      string
	CampaignID string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.CampaignID != "" {
		return fmt.Sprintf("letter submission failed at %s (campaign %s): %v", e.Stage, e.CampaignID, e.Err)
	}
	return fmt.Sprintf("letter submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// RequiredPlaceholders are the merge tokens every letter template must carry
// before submission. Missing any one of them would print letters with blank
// recipient or auction fields.
var RequiredPlaceholders = []string{
	"{{name}}",
	"{{address_line1}}",
	"{{address_city}}",
	"{{address_state}}",
	"{{address_zip}}",
	"{{auction_title}}",
	"{{auction_date}}",
	"{{auction_time}}",
	"{{auction_location}}",
}

// PlaceholderError reports every missing merge token at once.
type PlaceholderError struct {
	Missing []string
}

func (e *PlaceholderError) Error() string {
	return "letter template missing required placeholders: " + strings.Join(e.Missing, ", ")
}

// ValidatePlaceholders checks the template for all required merge tokens.
// Runs before any network call.
func ValidatePlaceholders(letterHTML string) error {
	var missing []string
	for _, token := range RequiredPlaceholders {
		if !strings.Contains(letterHTML, token) {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		return &PlaceholderError{Missing: missing}
	}
	return nil
}

// Address is a mail recipient in Lob's address shape.
type Address struct {
	Name  string `json:"name"`
	Line1 string `json:"address_line1"`
	City  string `json:"address_city"`
	State string `json:"address_state"`
	Zip   string `json:"address_zip"`
}

// FromAddress is the sender printed on every letter.
type FromAddress struct {
	Name  string `json:"name"`
	Line1 string `json:"address_line1"`
	City  string `json:"address_city"`
	State string `json:"address_state"`
	Zip   string `json:"address_zip"`
}

// APIError is a non-2xx response from Lob.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lob API returned status %d: %s", e.StatusCode, e.Message)
}

// UndeliverableError lists the recipients Lob's address verification marked
// undeliverable. The whole batch is held: a partially mailed list is worse
// than a corrected one.
type UndeliverableError struct {
	Addresses []string
}

func (e *UndeliverableError) Error() string {
	return fmt.Sprintf("%d address(es) failed verification: %s",
		len(e.Addresses), strings.Join(e.Addresses, "; "))
}

// Verification is the result of a US address verification.
type Verification struct {
	Deliverability string `json:"deliverability"`
	PrimaryLine    string `json:"primary_line"`
}

// Deliverable reports whether Lob considers the address mailable.
func (v Verification) Deliverable() bool {
	switch v.Deliverability {
	case "deliverable", "deliverable_unnecessary_unit", "deliverable_incorrect_unit", "deliverable_missing_unit":
		return true
	default:
		return false
	}
}

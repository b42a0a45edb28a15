// Package auctionapi is a client for the AuctionMethod REST API used to look
// up auction metadata by auction code.
package auctionapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Details is the formatted auction metadata consumed by letter templates.
type Details struct {
	AuctionCode string  `json:"auction_code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Time        string  `json:"time"`
	Location    string  `json:"location"`
	Manager     Manager `json:"manager"`
}

// Manager is the auction manager contact parsed out of the description HTML.
type Manager struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Complete reports whether every contact field was extracted.
func (m Manager) Complete() bool {
	return m.Name != "" && m.Phone != "" && m.Email != ""
}

// ContactLine formats the manager contact for letters. Incomplete extraction
// falls back to the company's default contact.
func (m Manager) ContactLine() string {
	if !m.Complete() {
		return "Please contact Will McLemore at (615) 636-9602 or will@mclemoreauction.com"
	}
	return fmt.Sprintf("Please contact %s at %s or %s", m.Name, m.Phone, m.Email)
}

// ErrNotFound indicates the auction code does not exist.
var ErrNotFound = errors.New("auction not found")

// APIError is a non-success response from the auction API. Retryable
// transport failures are handled below this layer; an APIError that reaches
// the caller is definitive for this request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auction API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auction API returned error: %s", e.Message)
}

// envelope is the wire shape of a lookup response.
type envelope struct {
	Message string     `json:"message"`
	Auction rawAuction `json:"auction"`
}

type rawAuction struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Starts      json.Number `json:"starts"`
	Timezone    string      `json:"timezone"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Zip         string      `json:"zip"`
}

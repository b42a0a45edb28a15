package dropbox

import (
	"context"
	"fmt"
)

// Archiver files letter artifacts into the auction's existing Dropbox folder
// so the rest of the company finds them next to the contract and photos.
type Archiver struct {
	client *Client
}

// NewArchiver wraps a client.
func NewArchiver(client *Client) *Archiver {
	return &Archiver{client: client}
}

// ArchiveCSV uploads the processed address list into the auction folder and
// returns a shareable link to it.
func (a *Archiver) ArchiveCSV(ctx context.Context, auctionCode string, data []byte) (string, error) {
	folder, err := a.client.FindAuctionFolder(ctx, auctionCode)
	if err != nil {
		return "", fmt.Errorf("locate auction folder: %w", err)
	}

	path := folder.PathLower + "/neighbor-letters/processed_addresses.csv"
	if _, err := a.client.Upload(ctx, path, data); err != nil {
		return "", fmt.Errorf("upload address list: %w", err)
	}

	link, err := a.client.SharedLink(ctx, path)
	if err != nil {
		return "", fmt.Errorf("share address list: %w", err)
	}
	return link, nil
}

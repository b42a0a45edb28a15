// Package letters manages per-auction letter templates and processed
// recipient lists, and renders previews.
package letters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
)

// Store sentinels.
var (
	ErrNoTemplate = errors.New("no letter template saved for this auction")
	ErrNoRecords  = errors.New("no processed addresses found for this auction")

	// ErrBadAuctionCode rejects codes that could escape the data directory.
	ErrBadAuctionCode = errors.New("invalid auction code")
)

var auctionCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store persists the template and processed address list for an auction
// code.
type Store interface {
	GetTemplate(auctionCode string) (string, error)
	SaveTemplate(auctionCode, letterHTML string) error
	GetRecords(auctionCode string) ([]csvproc.AddressRecord, error)
	SaveRecords(auctionCode string, records []csvproc.AddressRecord) error
}

// FileStore keeps each auction's artifacts under dataDir/<code>/.
type FileStore struct {
	dataDir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

func (s *FileStore) dir(auctionCode string) (string, error) {
	if !auctionCodeRe.MatchString(auctionCode) {
		return "", ErrBadAuctionCode
	}
	return filepath.Join(s.dataDir, auctionCode), nil
}

func (s *FileStore) GetTemplate(auctionCode string) (string, error) {
	dir, err := s.dir(auctionCode)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, "letter.html"))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoTemplate
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) SaveTemplate(auctionCode, letterHTML string) error {
	dir, err := s.dir(auctionCode)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "letter.html"), []byte(letterHTML), 0o644)
}

func (s *FileStore) GetRecords(auctionCode string) ([]csvproc.AddressRecord, error) {
	dir, err := s.dir(auctionCode)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "processed_addresses.csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, err
	}
	return csvproc.ReadProcessedCSV(data)
}

func (s *FileStore) SaveRecords(auctionCode string, records []csvproc.AddressRecord) error {
	dir, err := s.dir(auctionCode)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := csvproc.MarshalCSV(records)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "processed_addresses.csv"), data, 0o644)
}

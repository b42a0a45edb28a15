package letters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclemoreauction/neighbor-letters/internal/auctionapi"
	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
	"github.com/mclemoreauction/neighbor-letters/internal/lob"
)

type fixedFetcher struct {
	details *auctionapi.Details
	err     error
}

func (f *fixedFetcher) GetAuction(ctx context.Context, code string) (*auctionapi.Details, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func testDetails() *auctionapi.Details {
	return &auctionapi.Details{
		AuctionCode: "2524",
		Title:       "Estate Auction",
		Description: "80 acres of farm land",
		Date:        "2025-06-15",
		Time:        "10:00 AM CST",
		Location:    "12 Oak St, Selmer, TN 38375",
	}
}

func testService(t *testing.T, fetcher auctionapi.Fetcher) (*Service, *FileStore) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewService(store, fetcher), store
}

func TestDefaultLetter_PassesValidation(t *testing.T) {
	letter := DefaultLetter(testDetails())
	assert.NoError(t, lob.ValidatePlaceholders(letter))
	assert.Contains(t, letter, "80 acres of farm land")
	assert.Contains(t, letter, "Will McLemore")
}

func TestDefaultLetter_NoTimeStillValid(t *testing.T) {
	details := testDetails()
	details.Time = ""
	assert.NoError(t, lob.ValidatePlaceholders(DefaultLetter(details)))
}

func TestTemplate_DefaultWhenUnsaved(t *testing.T) {
	svc, _ := testService(t, &fixedFetcher{details: testDetails()})

	tmpl, err := svc.Template(context.Background(), "2524")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "{{auction_title}}")
}

func TestTemplate_StoredWins(t *testing.T) {
	svc, store := testService(t, &fixedFetcher{details: testDetails()})
	require.NoError(t, store.SaveTemplate("2524", "<p>custom</p>"))

	tmpl, err := svc.Template(context.Background(), "2524")
	require.NoError(t, err)
	assert.Equal(t, "<p>custom</p>", tmpl)
}

func TestSaveTemplate_RejectsMissingPlaceholders(t *testing.T) {
	svc, store := testService(t, &fixedFetcher{details: testDetails()})

	err := svc.SaveTemplate("2524", "<p>Dear {{name}}</p>")
	var phErr *lob.PlaceholderError
	require.ErrorAs(t, err, &phErr)

	// Nothing was persisted.
	_, err = store.GetTemplate("2524")
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestSaveTemplate_AcceptsComplete(t *testing.T) {
	svc, store := testService(t, &fixedFetcher{details: testDetails()})
	letter := DefaultLetter(testDetails())

	require.NoError(t, svc.SaveTemplate("2524", letter))
	stored, err := store.GetTemplate("2524")
	require.NoError(t, err)
	assert.Equal(t, letter, stored)
}

func TestPreview_FillsAllTokens(t *testing.T) {
	svc, _ := testService(t, &fixedFetcher{details: testDetails()})

	out, err := svc.Preview(context.Background(), "2524")
	require.NoError(t, err)

	assert.NotContains(t, out, "{{")
	assert.Contains(t, out, "John Q. Neighbor")
	assert.Contains(t, out, "Estate Auction")
	assert.Contains(t, out, "2025-06-15")
}

func TestPreview_AuctionLookupFailure(t *testing.T) {
	svc, _ := testService(t, &fixedFetcher{err: auctionapi.ErrNotFound})
	_, err := svc.Preview(context.Background(), "2524")
	assert.ErrorIs(t, err, auctionapi.ErrNotFound)
}

func TestFileStore_RecordsRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	records := []csvproc.AddressRecord{
		{Name: "John Smith", Address: "12 Oak St", City: "Selmer", State: "TN", Zip: "38375"},
	}
	require.NoError(t, store.SaveRecords("2524", records))

	back, err := store.GetRecords("2524")
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestFileStore_MissingRecords(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.GetRecords("2524")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, code := range []string{"../etc", "a/b", "", "code with spaces"} {
		_, err := store.GetTemplate(code)
		assert.ErrorIs(t, err, ErrBadAuctionCode, "code %q", code)
		assert.ErrorIs(t, store.SaveTemplate(code, "x"), ErrBadAuctionCode, "code %q", code)
	}
}

func TestTemplate_StoreErrorPropagates(t *testing.T) {
	svc := NewService(failingStore{}, &fixedFetcher{details: testDetails()})
	_, err := svc.Template(context.Background(), "2524")
	assert.ErrorContains(t, err, "disk gone")
}

type failingStore struct{}

func (failingStore) GetTemplate(string) (string, error)        { return "", errors.New("disk gone") }
func (failingStore) SaveTemplate(string, string) error         { return errors.New("disk gone") }
func (failingStore) GetRecords(string) ([]csvproc.AddressRecord, error) {
	return nil, errors.New("disk gone")
}
func (failingStore) SaveRecords(string, []csvproc.AddressRecord) error { return errors.New("disk gone") }

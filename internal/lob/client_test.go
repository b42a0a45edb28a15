package lob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
)

type fakeDoer struct {
	status   int
	body     string
	requests []*http.Request
	bodies   [][]byte
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, b)
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
		Header:     make(http.Header),
	}, nil
}

func testLobClient(doer *fakeDoer) *Client {
	return NewClient(config.LobConfig{
		BaseURL: "https://api.lob.test/v1",
		APIKey:  "test_key",
	}, doer)
}

func TestCreateCampaign(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"id":"cmp_abc"}`}
	id, err := testLobClient(doer).CreateCampaign(context.Background(), "2524")
	require.NoError(t, err)
	assert.Equal(t, "cmp_abc", id)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, "https://api.lob.test/v1/campaigns", req.URL.String())

	user, _, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "test_key", user)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(doer.bodies[0], &payload))
	assert.Equal(t, "Neighbor Letters 2524", payload["name"])
	assert.Equal(t, "immediate", payload["schedule_type"])
}

func TestCreateCreative_Payload(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"id":"crv_abc"}`}
	from := FromAddress{
		Name: "McLemore Auction Company", Line1: "P.O. Box 58",
		City: "Columbia", State: "TN", Zip: "38402",
	}

	id, err := testLobClient(doer).CreateCreative(context.Background(), "cmp_abc", "2524", "<p>hi</p>", from)
	require.NoError(t, err)
	assert.Equal(t, "crv_abc", id)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(doer.bodies[0], &payload))
	assert.Equal(t, "cmp_abc", payload["campaign_id"])
	assert.Equal(t, "<p>hi</p>", payload["file"])

	details := payload["details"].(map[string]interface{})
	assert.Equal(t, "usps_first_class", details["mail_type"])
	assert.Equal(t, "8.5x11", details["size"])
}

func TestPost_ErrorEnvelope(t *testing.T) {
	doer := &fakeDoer{status: 422, body: `{"error":{"message":"file is invalid"}}`}
	_, err := testLobClient(doer).CreateCampaign(context.Background(), "2524")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, "file is invalid", apiErr.Message)
}

func TestPost_ErrorRawBody(t *testing.T) {
	doer := &fakeDoer{status: 500, body: "internal error"}
	_, err := testLobClient(doer).CreateCampaign(context.Background(), "2524")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "internal error", apiErr.Message)
}

func TestVerifyAddress(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"deliverability":"deliverable","primary_line":"12 OAK ST"}`}
	v, err := testLobClient(doer).VerifyAddress(context.Background(), Address{
		Line1: "12 Oak St", City: "Selmer", State: "TN", Zip: "38375",
	})
	require.NoError(t, err)
	assert.True(t, v.Deliverable())
	assert.Equal(t, "12 OAK ST", v.PrimaryLine)
}

func TestVerification_Deliverable(t *testing.T) {
	assert.True(t, Verification{Deliverability: "deliverable_missing_unit"}.Deliverable())
	assert.False(t, Verification{Deliverability: "undeliverable"}.Deliverable())
	assert.False(t, Verification{}.Deliverable())
}

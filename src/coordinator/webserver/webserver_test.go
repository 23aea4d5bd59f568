package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchfund/voteexec/src/coordinator/components/ingest"
	"github.com/torchfund/voteexec/src/coordinator/components/tally"
	"github.com/torchfund/voteexec/src/coordinator/config"
	"github.com/torchfund/voteexec/src/coordinator/data"
	"github.com/torchfund/voteexec/src/coordinator/types"
)

type fakeChainReader struct{ passed bool }

func (f fakeChainReader) GetVoteResult(context.Context, common.Hash) (bool, error) {
	return f.passed, nil
}

type fakeVerifier struct{ eligible bool }

func (f fakeVerifier) VerifyVoter(context.Context, string, string, string) (bool, error) {
	return f.eligible, nil
}

type fakeRunner struct{ calls int }

func (f *fakeRunner) RunCycle(context.Context) { f.calls++ }

const jwtSecret = "test-secret"

func newTestServer(t *testing.T, store data.Store, eligible bool) (*gin.Engine, *fakeRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{JWTSecret: jwtSecret, AllowedOrigins: []string{"http://localhost:3000"}}
	runner := &fakeRunner{}
	r := New(cfg, store, ingest.New(store), tally.New(store), fakeChainReader{passed: true}, fakeVerifier{eligible: eligible}, runner)
	return r, runner
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":        title,
		"description":  "clean water for everyone",
		"targetAmount": "2.5",
		"deadline":     time.Now().AddDate(0, 1, 0).Unix(),
		"owner":        "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"imageUrl":     "https://img.example/1.png",
	}
}

func TestCreateCampaign(t *testing.T) {
	store := data.NewMemoryStore()
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodPost, "/api/votes/create", createBody("Water"), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["proposalId"])
	assert.Equal(t, types.StatusQueued, resp["status"])

	// Same owner and title again: rejected as duplicate.
	w = doJSON(r, http.MethodPost, "/api/votes/create", createBody("Water"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateCampaignValidation(t *testing.T) {
	store := data.NewMemoryStore()
	r, _ := newTestServer(t, store, true)

	body := createBody("Water")
	body["owner"] = "not-an-address"
	w := doJSON(r, http.MethodPost, "/api/votes/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = createBody("Water")
	body["targetAmount"] = "0"
	w = doJSON(r, http.MethodPost, "/api/votes/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = createBody("Water")
	delete(body, "title")
	w = doJSON(r, http.MethodPost, "/api/votes/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func seedPending(t *testing.T, store *data.MemoryStore, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.MoveToPending(context.Background(), []data.Move{{
		FromProposalID: "0xabc",
		Pending: types.PendingCampaign{
			ID:         id,
			ProposalID: common.BytesToHash([]byte(id)).Hex(),
			Status:     types.StatusPending,
			Votes:      types.VoteSet{},
			QueuedAt:   now,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}}))
}

func voteBody(campaignID string, vote bool) map[string]interface{} {
	return map[string]interface{}{
		"campaignId":   campaignID,
		"vote":         vote,
		"voterAddress": "0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"message":      "vote challenge",
		"signature":    "0xdeadbeef",
	}
}

func TestCastVote(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodPost, "/api/votes/vote", voteBody("c1", false), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A false choice must bind; it counts as a reject.
	pc, err := store.GetPending(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, types.VoteSet{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": false}, pc.Votes)
}

func TestCastVoteUnknownCampaign(t *testing.T) {
	store := data.NewMemoryStore()
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodPost, "/api/votes/vote", voteBody("nope", true), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCastVoteIneligibleVoter(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	r, _ := newTestServer(t, store, false)

	w := doJSON(r, http.MethodPost, "/api/votes/vote", voteBody("c1", true), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	pc, _ := store.GetPending(context.Background(), "c1")
	assert.Empty(t, pc.Votes)
}

func TestGetCampaignWithTallyAndChainStatus(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	require.NoError(t, store.RecordVote(context.Background(), "c1", "0xvoter", true))
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodGet, "/api/votes/c1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tally             tally.Result           `json:"tally"`
		CurrentVoteStatus map[string]bool        `json:"currentVoteStatus"`
		Campaign          map[string]interface{} `json:"campaign"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, tally.Result{TotalVoters: 1, Approve: 1}, resp.Tally)
	assert.True(t, resp.CurrentVoteStatus["passed"])
}

func TestListings(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodGet, "/api/votes/pending", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []types.PendingCampaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	assert.Len(t, pending, 1)

	w = doJSON(r, http.MethodGet, "/api/votes/queued", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func operatorToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func TestAdminRequiresJWT(t *testing.T) {
	store := data.NewMemoryStore()
	r, runner := newTestServer(t, store, true)

	w := doJSON(r, http.MethodPost, "/api/admin/run", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, runner.calls)

	w = doJSON(r, http.MethodPost, "/api/admin/run", nil, map[string]string{
		"Authorization": "Bearer " + operatorToken(t),
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestAdminClearError(t *testing.T) {
	store := data.NewMemoryStore()
	seedPending(t, store, "c1")
	require.NoError(t, store.FlagError(context.Background(), "c1", "execution reverted"))
	r, _ := newTestServer(t, store, true)

	headers := map[string]string{"Authorization": "Bearer " + operatorToken(t)}

	w := doJSON(r, http.MethodPost, "/api/admin/clear/c1", nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	pc, err := store.GetPending(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, pc.Status)

	// Clearing a row that is not flagged is a 404.
	w = doJSON(r, http.MethodPost, "/api/admin/clear/c1", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	store := data.NewMemoryStore()
	r, _ := newTestServer(t, store, true)

	w := doJSON(r, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

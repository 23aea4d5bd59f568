// Minimal end‑to‑end integration test for the vote executor API.
// Run against a live stack (API + MySQL + local chain). The voter key
// must hold vote tokens on the target chain for the vote step to pass.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:4000")
	voterKey = getenv("VOTER_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80") // hardhat #0
	ownerHex = getenv("OWNER_ADDRESS", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	title := "integration-test " + uuid.NewString()

	proposalID := createCampaign(title)
	checkDuplicate(title)
	checkQueued(proposalID)

	// Voting needs a pending campaign; a fresh submission sits in the
	// queue until the next migration cycle.
	if id := firstPending(); id != "" {
		castVote(id)
		checkTally(id)
	} else {
		log.Print("no pending campaigns, skipping vote step")
	}

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- campaigns

func createCampaign(title string) string {
	var resp struct{ ProposalID string `json:"proposalId"` }
	doJSON("POST", "/api/votes/create", campaignBody(title), &resp, http.StatusCreated)
	if resp.ProposalID == "" {
		log.Fatal("create: empty proposalId")
	}
	return resp.ProposalID
}

func checkDuplicate(title string) {
	doJSON("POST", "/api/votes/create", campaignBody(title), nil, http.StatusConflict)
}

func checkQueued(want string) {
	var queued []struct{ ProposalID string `json:"proposalId"` }
	doJSON("GET", "/api/votes/queued", nil, &queued, http.StatusOK)
	for _, q := range queued {
		if q.ProposalID == want {
			return
		}
	}
	log.Fatal("queued: created campaign not found")
}

func campaignBody(title string) map[string]any {
	return map[string]any{
		"title":        title,
		"description":  "end to end smoke campaign",
		"targetAmount": "1.5",
		"deadline":     time.Now().AddDate(0, 1, 0).Unix(),
		"owner":        ownerHex,
		"imageUrl":     "https://example.com/smoke.png",
	}
}

// ----------------------------- votes

func firstPending() string {
	var pending []struct{ ID string `json:"id"` }
	doJSON("GET", "/api/votes/pending", nil, &pending, http.StatusOK)
	if len(pending) == 0 {
		return ""
	}
	return pending[0].ID
}

func castVote(id string) {
	key, err := crypto.HexToECDSA(voterKey)
	if err != nil {
		log.Fatalf("voter key: %v", err)
	}
	message := "voteexec smoke " + uuid.NewString()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	sig[64] += 27

	doJSON("POST", "/api/votes/vote", map[string]any{
		"campaignId":   id,
		"vote":         true,
		"voterAddress": crypto.PubkeyToAddress(key.PublicKey).Hex(),
		"message":      message,
		"signature":    hexutil.Encode(sig),
	}, nil, http.StatusOK)
}

func checkTally(id string) {
	var resp struct {
		Tally struct {
			TotalVoters int `json:"totalVoters"`
			Approve     int `json:"approve"`
		} `json:"tally"`
	}
	doJSON("GET", "/api/votes/"+id, nil, &resp, http.StatusOK)
	if resp.Tally.Approve == 0 {
		log.Fatal("tally: cast vote not counted")
	}
}

// ----------------------------- helpers

func doJSON(method, path string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}

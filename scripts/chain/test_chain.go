package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/torchfund/voteexec/src/shared/evm"
)

func main() {
	rpcURL := getenv("RPC_URL", "http://127.0.0.1:8545")
	executor := common.HexToAddress(os.Getenv("VOTE_EXECUTOR_ADDRESS"))
	voteToken := common.HexToAddress(os.Getenv("VOTE_TOKEN_ADDRESS"))
	keyHex := getenv("PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	signer, err := evm.NewSignerFromHex(keyHex)
	if err != nil {
		log.Fatalf("Failed to load key: %v", err)
	}

	client, err := evm.NewClient(rpcURL, executor, voteToken, 31337, signer, 2*time.Minute)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	balance, err := client.VoterBalance(ctx, signer.Address())
	if err != nil {
		log.Fatalf("Error reading vote token balance: %v", err)
	}
	log.Printf("Signer %s:", signer.Address().Hex())
	log.Printf("  Vote token balance: %s", balance)

	// Optionally probe a known proposal.
	if idHex := os.Getenv("PROPOSAL_ID"); idHex != "" {
		passed, err := client.GetVoteResult(ctx, common.HexToHash(idHex))
		if err != nil {
			log.Fatalf("Error getting vote result: %v", err)
		}
		log.Printf("Proposal %s:", idHex)
		log.Printf("  Passed: %v", passed)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

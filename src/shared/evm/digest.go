package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProposalID derives the intake dedup key from the stable payload
// fields. The rule is keccak256(owner || title) and is fixed for the
// life of the system: changing it would break dedup against in-flight
// campaigns.
func ProposalID(owner, title string) common.Hash {
	return crypto.Keccak256Hash([]byte(strings.ToLower(owner)), []byte(title))
}

// ResultHash hashes the configured signing message. The contract checks
// every execution against this value.
func ResultHash(signMessage string) common.Hash {
	return crypto.Keccak256Hash([]byte(signMessage))
}

// ResultDigest is the canonical digest validators attest to:
// keccak256(abi.encodePacked(proposalId, resultHash)).
func ResultDigest(proposalID, resultHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(proposalID.Bytes(), resultHash.Bytes())
}

// ToWei converts a decimal token amount ("1.5") into wei. At most 18
// fractional digits are accepted.
func ToWei(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("amount %q has more than 18 decimal places", amount)
	}
	frac += strings.Repeat("0", 18-len(frac))
	if whole == "" {
		whole = "0"
	}
	w, ok := new(big.Int).SetString(whole, 10)
	if !ok || w.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	f, ok := new(big.Int).SetString(frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	wei := new(big.Int).Mul(w, big.NewInt(1e18))
	return wei.Add(wei, f), nil
}

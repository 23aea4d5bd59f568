package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// VerifyVoter checks that signature was produced over message by voter
// and that the voter holds voting tokens. Both checks must pass before
// a vote is recorded.
func (c *Client) VerifyVoter(ctx context.Context, message, signature, voter string) (bool, error) {
	if !common.IsHexAddress(voter) {
		return false, fmt.Errorf("invalid voter address %q", voter)
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}

	recovered, err := RecoverSigner([]byte(message), sig)
	if err != nil {
		return false, err
	}
	addr := common.HexToAddress(voter)
	if recovered != addr {
		return false, nil
	}

	balance, err := c.VoterBalance(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("voter balance: %w", err)
	}
	return balance.Sign() > 0, nil
}

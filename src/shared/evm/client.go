package evm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/torchfund/voteexec/src/coordinator/types"
)

// voteExecutorABI covers the three entry points the coordinator uses.
const voteExecutorABI = `[
 {"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[
   {"name":"proposalId","type":"bytes32"},
   {"name":"startTime","type":"uint256"},
   {"name":"endTime","type":"uint256"},
   {"name":"details","type":"tuple","components":[
     {"name":"campaignOwner","type":"address"},
     {"name":"title","type":"string"},
     {"name":"description","type":"string"},
     {"name":"image","type":"string"},
     {"name":"target","type":"uint256"},
     {"name":"deadline","type":"uint256"}]}],"outputs":[]},
 {"type":"function","name":"getVoteResult","stateMutability":"view","inputs":[
   {"name":"proposalId","type":"bytes32"}],"outputs":[{"name":"passed","type":"bool"}]},
 {"type":"function","name":"executeResult","stateMutability":"nonpayable","inputs":[
   {"name":"proposalId","type":"bytes32"},
   {"name":"passed","type":"bool"},
   {"name":"resultHash","type":"bytes32"},
   {"name":"signatures","type":"bytes[]"}],"outputs":[]}
]`

const erc20ABI = `[
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
   {"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// ErrTimeout marks a chain call that did not confirm in time. The
	// transaction may still land; callers must not assume either
	// outcome.
	ErrTimeout = errors.New("chain call timed out")

	// ErrReverted marks a definitive on-chain revert. Not retryable
	// without operator review.
	ErrReverted = errors.New("chain call reverted")
)

// proposalDetails mirrors the contract's CampaignDetails tuple.
type proposalDetails struct {
	CampaignOwner common.Address
	Title         string
	Description   string
	Image         string
	Target        *big.Int
	Deadline      *big.Int
}

// Client talks to the VoteExecutor contract over JSON-RPC. The protocol
// signer pays for state-changing calls.
type Client struct {
	eth            *ethclient.Client
	executor       *bind.BoundContract
	voteToken      *bind.BoundContract
	signer         *Signer
	chainID        *big.Int
	confirmTimeout time.Duration
}

// NewClient dials the RPC endpoint and binds the VoteExecutor at
// executorAddr. voteTokenAddr may be zero if voter balance gating is
// disabled.
func NewClient(rpcURL string, executorAddr, voteTokenAddr common.Address, chainID int64, signer *Signer, confirmTimeout time.Duration) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	execABI, err := abi.JSON(strings.NewReader(voteExecutorABI))
	if err != nil {
		return nil, fmt.Errorf("parse executor abi: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	if confirmTimeout <= 0 {
		confirmTimeout = 2 * time.Minute
	}

	c := &Client{
		eth:            eth,
		executor:       bind.NewBoundContract(executorAddr, execABI, eth, eth, eth),
		signer:         signer,
		chainID:        big.NewInt(chainID),
		confirmTimeout: confirmTimeout,
	}
	if voteTokenAddr != (common.Address{}) {
		c.voteToken = bind.NewBoundContract(voteTokenAddr, tokenABI, eth, eth, eth)
	}
	return c, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// RegisterProposal submits createProposal and waits for the receipt.
// Returns the transaction hash on success.
func (c *Client) RegisterProposal(ctx context.Context, proposalID common.Hash, startTime, endTime int64, d types.CampaignFields) (string, error) {
	target, err := ToWei(d.TargetAmount)
	if err != nil {
		return "", fmt.Errorf("target amount: %w", err)
	}
	details := proposalDetails{
		CampaignOwner: common.HexToAddress(d.Owner),
		Title:         d.Title,
		Description:   d.Description,
		Image:         d.Image,
		Target:        target,
		Deadline:      big.NewInt(d.Deadline),
	}
	return c.transact(ctx, "createProposal", proposalID, big.NewInt(startTime), big.NewInt(endTime), details)
}

// GetVoteResult reads the authoritative pass/fail result for a
// proposal. The chain, not the local tally, decides settlement.
func (c *Client) GetVoteResult(ctx context.Context, proposalID common.Hash) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var out []interface{}
	err := c.executor.Call(&bind.CallOpts{Context: callCtx}, &out, "getVoteResult", proposalID)
	if err != nil {
		return false, classify(err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("getVoteResult: unexpected output arity %d", len(out))
	}
	passed, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("getVoteResult: unexpected output type %T", out[0])
	}
	return passed, nil
}

// ExecuteResult submits executeResult with the quorum signatures and
// waits for the receipt.
func (c *Client) ExecuteResult(ctx context.Context, proposalID common.Hash, passed bool, resultHash common.Hash, signatures [][]byte) (string, error) {
	return c.transact(ctx, "executeResult", proposalID, passed, resultHash, signatures)
}

// VoterBalance returns the voter's voting-token balance. A nil token
// binding means gating is disabled and every balance reads as 1.
func (c *Client) VoterBalance(ctx context.Context, voter common.Address) (*big.Int, error) {
	if c.voteToken == nil {
		return big.NewInt(1), nil
	}
	callCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var out []interface{}
	err := c.voteToken.Call(&bind.CallOpts{Context: callCtx}, &out, "balanceOf", voter)
	if err != nil {
		return nil, classify(err)
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected output type %T", out[0])
	}
	return bal, nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.signer.key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("transactor: %w", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	opts.Context = txCtx

	tx, err := c.executor.Transact(opts, method, args...)
	if err != nil {
		return "", classify(err)
	}

	receipt, err := bind.WaitMined(txCtx, c.eth, tx)
	if err != nil {
		return tx.Hash().Hex(), classify(err)
	}
	if receipt.Status == 0 {
		return tx.Hash().Hex(), fmt.Errorf("%s tx %s: %w", method, tx.Hash().Hex(), ErrReverted)
	}

	log.Printf("chain: %s confirmed in block %s (tx %s)", method, receipt.BlockNumber, tx.Hash().Hex())
	return tx.Hash().Hex(), nil
}

// classify maps raw RPC errors onto the coordinator taxonomy. A
// confirmation timeout is never conflated with a revert: the
// transaction may still land.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return fmt.Errorf("%w: %v", ErrReverted, err)
	}
	return err
}

// IsAlreadyKnown reports whether err is a revert caused by repeating an
// idempotency-sensitive call: registering a proposal id twice or
// executing an already-executed result. Callers treat this as a
// recoverable, logged condition.
func IsAlreadyKnown(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already registered") ||
		strings.Contains(msg, "already executed") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already known")
}

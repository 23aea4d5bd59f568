package quorum

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrQuorum marks a cycle where the validator set could not produce
// enough signatures. Transient; the campaign stays pending and is
// retried next cycle.
var ErrQuorum = errors.New("signature quorum not reached")

// Signer produces a signature over a result digest. Signing is a pure
// cryptographic operation; no chain interaction.
type Signer interface {
	SignDigest(digest common.Hash) ([]byte, error)
	Address() common.Address
}

// Aggregator collects attestations from a fixed validator set. The
// default policy requires every configured validator to sign; a lower
// m-of-n threshold must be configured explicitly.
type Aggregator struct {
	signers   []Signer
	threshold int
}

// New builds an aggregator over the validator set. threshold <= 0 or
// above the set size means all validators must sign.
func New(signers []Signer, threshold int) (*Aggregator, error) {
	if len(signers) == 0 {
		return nil, errors.New("empty validator set")
	}
	if threshold <= 0 || threshold > len(signers) {
		threshold = len(signers)
	}
	return &Aggregator{signers: signers, threshold: threshold}, nil
}

// Collect gathers signatures over digest. When fewer than threshold
// validators sign, it fails with ErrQuorum and returns no partial set.
// Signature order is irrelevant; each is verified independently
// on-chain.
func (a *Aggregator) Collect(digest common.Hash) ([][]byte, error) {
	sigs := make([][]byte, 0, len(a.signers))
	var firstErr error
	for _, s := range a.signers {
		sig, err := s.SignDigest(digest)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("validator %s: %w", s.Address().Hex(), err)
			}
			continue
		}
		sigs = append(sigs, sig)
	}
	if len(sigs) < a.threshold {
		if firstErr != nil {
			return nil, fmt.Errorf("%w: have %d of %d required (%v)", ErrQuorum, len(sigs), a.threshold, firstErr)
		}
		return nil, fmt.Errorf("%w: have %d of %d required", ErrQuorum, len(sigs), a.threshold)
	}
	return sigs, nil
}

// Size returns the configured validator set size.
func (a *Aggregator) Size() int { return len(a.signers) }

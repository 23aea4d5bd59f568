package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalIDIsDeterministic(t *testing.T) {
	a := ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "T")
	b := ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "T")
	assert.Equal(t, a, b)
}

func TestProposalIDOwnerCaseInsensitive(t *testing.T) {
	a := ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "T")
	b := ProposalID("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "T")
	assert.Equal(t, a, b)
}

func TestProposalIDDistinguishesInputs(t *testing.T) {
	base := ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "T")
	assert.NotEqual(t, base, ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "U"))
	assert.NotEqual(t, base, ProposalID("0xdAC17F958D2ee523a2206206994597C13D831ec7", "T"))
}

func TestResultDigestMatchesPackedEncoding(t *testing.T) {
	pid := ProposalID("0xA0B86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "T")
	rh := ResultHash("attestation message")

	// keccak256(abi.encodePacked(proposalId, resultHash))
	want := crypto.Keccak256Hash(append(pid.Bytes(), rh.Bytes()...))
	assert.Equal(t, want, ResultDigest(pid, rh))
}

func TestToWei(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{"0", "0"},
		{".5", "500000000000000000"},
		{"100.25", "100250000000000000000"},
	}
	for _, tc := range cases {
		got, err := ToWei(tc.in)
		require.NoError(t, err, tc.in)
		want, _ := new(big.Int).SetString(tc.want, 10)
		assert.Zero(t, got.Cmp(want), "ToWei(%q) = %s, want %s", tc.in, got, want)
	}
}

func TestToWeiRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1.2.3", "1.0000000000000000001"} {
		_, err := ToWei(in)
		assert.Error(t, err, in)
	}
}

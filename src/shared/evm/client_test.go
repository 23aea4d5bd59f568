package evm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeparatesTimeoutFromRevert(t *testing.T) {
	timeout := classify(fmt.Errorf("wait mined: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.NotErrorIs(t, timeout, ErrReverted)

	reverted := classify(errors.New("execution reverted: voting not closed"))
	assert.ErrorIs(t, reverted, ErrReverted)
	assert.NotErrorIs(t, reverted, ErrTimeout)
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	raw := errors.New("connection refused")
	got := classify(raw)
	assert.Equal(t, raw, got)
	assert.Nil(t, classify(nil))
}

func TestIsAlreadyKnown(t *testing.T) {
	assert.True(t, IsAlreadyKnown(errors.New("execution reverted: proposal already registered")))
	assert.True(t, IsAlreadyKnown(errors.New("execution reverted: result Already Executed")))
	assert.True(t, IsAlreadyKnown(errors.New("already known")))
	assert.False(t, IsAlreadyKnown(errors.New("execution reverted: quorum not met")))
	assert.False(t, IsAlreadyKnown(nil))
}

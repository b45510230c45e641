package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("declare: %w", fmt.Errorf("%w: m1", ErrMatchAlreadyDecided))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "match_already_decided", CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrMatchAlreadyDecided))

	assert.Equal(t, KindNotFound, KindOf(ErrPlayerNotFound))
	assert.Equal(t, KindValidation, KindOf(insufficientPlayers(32, 3)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal", CodeOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestInsufficientPlayersMessage(t *testing.T) {
	err := insufficientPlayers(32, 30)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
	assert.Equal(t, "insufficient players for this round. Required: 32, registered: 30", err.Error())
}

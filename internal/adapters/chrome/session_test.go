package chrome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playsarchiver/internal/core/domain"
)

func TestSessionClosedByParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := NewSession(parent, true, zap.NewNop())
	require.True(t, s.Alive())

	cancel()
	assert.False(t, s.Alive())

	assert.ErrorIs(t, s.Close(), domain.ErrSessionClosed)
	assert.ErrorIs(t, s.Close(), domain.ErrSessionClosed)

	_, err := s.HTML(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

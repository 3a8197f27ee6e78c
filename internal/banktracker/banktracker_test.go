package banktracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptAndIsAccepted(t *testing.T) {
	tr := New()
	require.False(t, tr.IsAccepted(0, 3))
	tr.Accept(0, 3)
	assert.True(t, tr.IsAccepted(0, 3))
	assert.False(t, tr.IsAccepted(1, 3))
}

func TestCopyAccept(t *testing.T) {
	tr := New()
	tr.Accept(0, 5)
	tr.CopyAccept(0, 1, 5)
	assert.True(t, tr.IsAccepted(1, 5))
	assert.False(t, tr.IsAccepted(1, 6))
}

func TestSetNoContentClearsAccepted(t *testing.T) {
	tr := New()
	tr.SetHoldsAcceptedContent(0)
	require.True(t, tr.IsContent(0))
	require.True(t, tr.IsAllAccepted(0, MaxImages))

	tr.SetNoContent(0)
	assert.False(t, tr.IsContent(0))
	assert.False(t, tr.IsAllAccepted(0, 1))
}

func TestSetHoldsContentLeavesAcceptedAlone(t *testing.T) {
	tr := New()
	tr.Accept(0, 0)
	tr.SetHoldsContent(0)
	assert.True(t, tr.IsContent(0))
	assert.True(t, tr.IsAccepted(0, 0))
	assert.False(t, tr.IsAccepted(0, 1))
}

func TestIsAllAccepted(t *testing.T) {
	tr := New()
	assert.False(t, tr.IsAllAccepted(0, 3))
	tr.Accept(0, 0)
	tr.Accept(0, 1)
	assert.False(t, tr.IsAllAccepted(0, 3))
	tr.Accept(0, 2)
	assert.True(t, tr.IsAllAccepted(0, 3))
}

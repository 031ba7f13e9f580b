package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
)

func sampleBrief() brief.Brief {
	b := brief.New("Website Development")
	b.ClientName = "Asha"
	b.Scope.Features = []string{"Blog", "Contact form"}
	return b
}

func TestGate_ZeroValueIsIdle(t *testing.T) {
	var g Gate
	assert.Equal(t, StateIdle, g.Current())
	assert.False(t, g.Awaiting())
	_, ok := g.Snapshot()
	assert.False(t, ok)
}

func TestGate_RequestAndAccept(t *testing.T) {
	var g Gate
	turns := []history.Turn{history.User("hi")}

	req, err := g.Request(sampleBrief(), turns)
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StateRequested, g.Current())
	assert.True(t, g.Awaiting())

	resp, err := g.Respond(true)
	require.NoError(t, err)
	assert.Equal(t, DecisionAccepted, resp.Decision)
	assert.Equal(t, req.ID, resp.ID)
	assert.Equal(t, StateResponded, g.Current())

	g.Complete()
	assert.Equal(t, StateIdle, g.Current())
}

func TestGate_Reject(t *testing.T) {
	var g Gate
	_, err := g.Request(sampleBrief(), nil)
	require.NoError(t, err)

	resp, err := g.Respond(false)
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, resp.Decision)
}

func TestGate_DoubleRequestKeepsFirst(t *testing.T) {
	var g Gate
	first, err := g.Request(sampleBrief(), nil)
	require.NoError(t, err)

	other := sampleBrief()
	other.ClientName = "Ravi"
	second, err := g.Request(other, nil)
	assert.ErrorIs(t, err, apperrors.ErrApprovalPending)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Asha", second.Brief.ClientName)
}

func TestGate_RespondWithoutRequest(t *testing.T) {
	var g Gate
	_, err := g.Respond(true)
	assert.ErrorIs(t, err, apperrors.ErrNoApproval)

	_, err = g.Request(sampleBrief(), nil)
	require.NoError(t, err)
	_, err = g.Respond(true)
	require.NoError(t, err)
	_, err = g.Respond(true)
	assert.ErrorIs(t, err, apperrors.ErrNoApproval, "second response is rejected")
}

func TestGate_SnapshotIsImmutable(t *testing.T) {
	var g Gate
	b := sampleBrief()
	turns := []history.Turn{history.User("hello")}

	_, err := g.Request(b, turns)
	require.NoError(t, err)

	// Later edits to the live brief and history do not leak in.
	b.ClientName = "Changed"
	b.Scope.Features[0] = "Shop"
	turns[0].Content = "edited"

	snap, ok := g.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "Asha", snap.Brief.ClientName)
	assert.Equal(t, "Blog", snap.Brief.Scope.Features[0])
	assert.Equal(t, "hello", snap.History[0].Content)

	// Nor do edits to a returned snapshot.
	snap.Brief.Scope.Features[1] = "Gallery"
	again, _ := g.Snapshot()
	assert.Equal(t, "Contact form", again.Brief.Scope.Features[1])
}

func TestGate_Reset(t *testing.T) {
	var g Gate
	_, err := g.Request(sampleBrief(), nil)
	require.NoError(t, err)
	g.Reset()
	assert.Equal(t, StateIdle, g.Current())
	_, err = g.Respond(true)
	assert.ErrorIs(t, err, apperrors.ErrNoApproval)
}

package testutils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/pkg/coditypes"
)

func TestDeterministicGenerators(t *testing.T) {
	ResetTestCounters()

	assert.Equal(t, "00000001-0000-4000-8000-000000000001", GenerateUUID(true))
	assert.Equal(t, "00000002-0000-4000-8000-000000000002", GenerateUUID(true))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC), GetCurrentTime(true))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 2, 0, time.UTC), GetCurrentTime(true))

	_, err := uuid.Parse(GenerateUUID(false))
	assert.NoError(t, err)
}

func TestScriptedClient(t *testing.T) {
	boom := errors.New("boom")
	c := NewScriptedClient("first").Enqueue(ScriptedReply{Err: boom})

	got, err := c.Complete(context.Background(), coditypes.CompletionRequest{Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	_, err = c.Complete(context.Background(), coditypes.CompletionRequest{})
	assert.ErrorIs(t, err, boom)

	_, err = c.Complete(context.Background(), coditypes.CompletionRequest{})
	assert.ErrorIs(t, err, ErrScriptExhausted)

	require.Len(t, c.Requests(), 3)
	assert.Equal(t, 0.7, c.Requests()[0].Temperature)
}

func TestScriptedClientDelayHonorsContext(t *testing.T) {
	c := NewScriptedClient().Enqueue(ScriptedReply{Text: "late", Delay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, coditypes.CompletionRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEchoClient(t *testing.T) {
	req := coditypes.CompletionRequest{Messages: []coditypes.CompletionMessage{
		{Role: coditypes.RoleSystem, Content: "be nice"},
		{Role: coditypes.RoleUser, Content: "first"},
		{Role: coditypes.RoleAssistant, Content: "ok"},
		{Role: coditypes.RoleUser, Content: "second"},
	}}
	got, err := EchoClient{}.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "echo: second", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EchoClient{}.Complete(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

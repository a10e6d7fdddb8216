package service

import (
	"context"
	"testing"

	"shelfswap/internal/models"
	"shelfswap/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_SendRequiresOpenThread(t *testing.T) {
	t.Parallel()
	f := newTradeFixture(t)
	ctx := context.Background()
	trade := f.propose(t)

	_, err := f.env.chat.Send(ctx, SendMessageInput{TradeID: trade.ID, SenderID: f.alice.ID, Message: "hi"})
	assertAppError(t, err, models.CodeInvalidState)

	_, err = f.setStatus(trade, f.bob, models.TradeStatusAccepted)
	require.NoError(t, err)

	msg, err := f.env.chat.Send(ctx, SendMessageInput{TradeID: trade.ID, SenderID: f.alice.ID, Message: "shipping friday"})
	require.NoError(t, err)
	assert.False(t, msg.IsPinned)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "alice", msg.Sender.Username)

	thread, err := f.env.chat.List(ctx, trade.ID, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.True(t, thread[0].IsPinned)
	assert.Equal(t, "shipping friday", thread[1].Message)
}

func TestChatService_RejectsOutsidersAndBlankMessages(t *testing.T) {
	t.Parallel()
	f := newTradeFixture(t)
	ctx := context.Background()
	trade := f.propose(t)
	_, err := f.setStatus(trade, f.bob, models.TradeStatusAccepted)
	require.NoError(t, err)
	carol := testutil.CreateUser(t, f.env.store, "carol")

	_, err = f.env.chat.Send(ctx, SendMessageInput{TradeID: trade.ID, SenderID: carol.ID, Message: "hello"})
	assertAppError(t, err, models.CodeForbidden)

	_, err = f.env.chat.List(ctx, trade.ID, carol.ID)
	assertAppError(t, err, models.CodeForbidden)

	_, err = f.env.chat.Send(ctx, SendMessageInput{TradeID: trade.ID, SenderID: f.alice.ID, Message: "   "})
	assertAppError(t, err, models.CodeValidation)

	_, err = f.env.chat.Send(ctx, SendMessageInput{TradeID: 999, SenderID: f.alice.ID, Message: "hello"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestChatService_SetPinned(t *testing.T) {
	t.Parallel()
	f := newTradeFixture(t)
	ctx := context.Background()
	trade := f.propose(t)
	_, err := f.setStatus(trade, f.bob, models.TradeStatusAccepted)
	require.NoError(t, err)

	msg, err := f.env.chat.Send(ctx, SendMessageInput{TradeID: trade.ID, SenderID: f.bob.ID, Message: "tracking 123"})
	require.NoError(t, err)

	for range 2 {
		pinned, err := f.env.chat.SetPinned(ctx, PinMessageInput{TradeID: trade.ID, MessageID: msg.ID, UserID: f.alice.ID, Pinned: true})
		require.NoError(t, err)
		assert.True(t, pinned.IsPinned)
	}

	unpinned, err := f.env.chat.SetPinned(ctx, PinMessageInput{TradeID: trade.ID, MessageID: msg.ID, UserID: f.bob.ID, Pinned: false})
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)

	other := f.propose(t)
	_, err = f.env.chat.SetPinned(ctx, PinMessageInput{TradeID: other.ID, MessageID: msg.ID, UserID: f.alice.ID, Pinned: true})
	assertAppError(t, err, models.CodeNotFound)
}

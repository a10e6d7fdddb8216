package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	statuses := []TradeStatus{TradeStatusPending, TradeStatusAccepted, TradeStatusRejected, TradeStatusCompleted}
	allowed := map[[2]TradeStatus]bool{
		{TradeStatusPending, TradeStatusAccepted}:   true,
		{TradeStatusPending, TradeStatusRejected}:   true,
		{TradeStatusAccepted, TradeStatusCompleted}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			require.Equal(t, allowed[[2]TradeStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTradeStatusPredicates(t *testing.T) {
	require.True(t, TradeStatusRejected.IsTerminal())
	require.True(t, TradeStatusCompleted.IsTerminal())
	require.False(t, TradeStatusPending.IsTerminal())
	require.False(t, TradeStatusAccepted.IsTerminal())

	require.True(t, TradeStatusAccepted.AllowsChat())
	require.True(t, TradeStatusCompleted.AllowsChat())
	require.False(t, TradeStatusPending.AllowsChat())
	require.False(t, TradeStatusRejected.AllowsChat())

	require.True(t, TradeStatusPending.Valid())
	require.False(t, TradeStatus("cancelled").Valid())
}

func TestTradeParties(t *testing.T) {
	tr := &Trade{ProposerID: 1, ReceiverID: 2}
	require.True(t, tr.IsParty(1))
	require.True(t, tr.IsParty(2))
	require.False(t, tr.IsParty(3))
	require.Equal(t, uint(2), tr.Counterparty(1))
	require.Equal(t, uint(1), tr.Counterparty(2))
}

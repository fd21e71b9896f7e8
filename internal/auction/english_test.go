package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEnglish(t *testing.T) (*EnglishAuction, *fakeClock) {
	t.Helper()
	ledger := createTestLedger(t,
		testParticipant{name: "host", limit: 50, money: 0},
		testParticipant{name: "alice", limit: 200, money: 1000},
		testParticipant{name: "bob", limit: 150, money: 1000},
		testParticipant{name: "carol", limit: 100, money: 60},
	)
	clock := newFakeClock()
	return NewEnglish(ledger, Options{Timer: 30 * time.Second, Clock: clock.Now}), clock
}

func TestEnglish_Bidding(t *testing.T) {
	a, _ := createTestEnglish(t)

	_, ok := a.Deadline()
	assert.False(t, ok, "no clock before the first bid")

	require.NoError(t, a.Bid("alice", 100))
	assert.ErrorIs(t, a.Bid("alice", 120), ErrIneligible, "leader cannot outbid itself")
	assert.ErrorIs(t, a.Bid("bob", 100), ErrIneligible, "equal bids are rejected")
	assert.ErrorIs(t, a.Bid("bob", 90), ErrIneligible)
	assert.ErrorIs(t, a.Bid("host", 500), ErrIneligible)
	assert.ErrorIs(t, a.Bid("mallory", 500), ErrIneligible)
	assert.ErrorIs(t, a.Bid("carol", 101), ErrInsufficientFunds)

	require.NoError(t, a.Bid("bob", 110))
	leader, price, ok := a.Leader()
	require.True(t, ok)
	assert.Equal(t, "bob", leader)
	assert.Equal(t, int64(110), price)

	snap := a.Snapshot()
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "bob", snap.Leader)
	assert.Equal(t, int64(110), *snap.Price)
	assert.Equal(t, int64(30), *snap.Countdown)
}

func TestEnglish_SoftClose(t *testing.T) {
	a, clock := createTestEnglish(t)

	require.NoError(t, a.Bid("alice", 100))
	first, _ := a.Deadline()

	clock.Advance(29 * time.Second)
	require.NoError(t, a.Bid("bob", 110))

	deadline, ok := a.Deadline()
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(30*time.Second), deadline)
	assert.True(t, deadline.After(first))

	clock.Advance(29 * time.Second)
	assert.False(t, a.Finished())
	assert.False(t, a.Settle())
}

func TestEnglish_CloseAndSettle(t *testing.T) {
	a, clock := createTestEnglish(t)

	require.NoError(t, a.Bid("alice", 100))
	require.NoError(t, a.Bid("bob", 120))

	clock.Advance(30 * time.Second)
	assert.True(t, a.Finished())
	assert.ErrorIs(t, a.Bid("alice", 200), ErrAuctionClosed)

	require.True(t, a.Settle())
	assert.False(t, a.Settle(), "settles once")

	bob := participant(t, a.Ledger(), "bob")
	host := participant(t, a.Ledger(), "host")
	assert.Equal(t, int64(880), bob.Money)
	assert.Equal(t, int64(30), bob.Profits)
	assert.Equal(t, int64(120), host.Money)
	assert.Equal(t, int64(70), host.Profits)
	assert.Zero(t, participant(t, a.Ledger(), "alice").Profits)

	snap := a.Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, int64(0), *snap.Countdown)
}

package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealedTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return createTestLedger(t,
		testParticipant{name: "A", limit: 30, money: 1000},
		testParticipant{name: "B", limit: 100, money: 1000},
		testParticipant{name: "C", limit: 90, money: 1000},
	)
}

func TestFirstPrice_WinnerPaysOwnBid(t *testing.T) {
	clock := newFakeClock()
	a := NewFirstPrice(sealedTestLedger(t), Options{Timer: time.Minute, Clock: clock.Now})

	assert.ErrorIs(t, a.Bid("A", 50), ErrIneligible)
	require.NoError(t, a.Bid("B", 80))
	assert.ErrorIs(t, a.Bid("B", 95), ErrIneligible, "one bid per participant")
	assert.False(t, a.Finished())

	// Bids are sealed while the auction runs.
	snap := a.Snapshot()
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Leader)
	assert.Nil(t, snap.Price)

	require.NoError(t, a.Bid("C", 65))
	assert.True(t, a.Finished())
	assert.True(t, a.Settled())

	winner, price, ok := a.Winner()
	require.True(t, ok)
	assert.Equal(t, "B", winner)
	assert.Equal(t, int64(80), price)

	assert.Equal(t, int64(20), participant(t, a.Ledger(), "B").Profits)
	assert.Equal(t, int64(920), participant(t, a.Ledger(), "B").Money)
	assert.Equal(t, int64(50), participant(t, a.Ledger(), "A").Profits)
	assert.Zero(t, participant(t, a.Ledger(), "C").Profits)

	snap = a.Snapshot()
	assert.True(t, snap.Finished)
	assert.Len(t, snap.Bids, 2)
	assert.Equal(t, "B", snap.Leader)
	assert.Equal(t, int64(80), *snap.Price)

	assert.False(t, a.Poll(), "already settled")
}

func TestFirstPrice_UnaffordableBidCountsButCannotLead(t *testing.T) {
	clock := newFakeClock()
	ledger := sealedTestLedger(t)
	participant(t, ledger, "C").Money = 10
	a := NewFirstPrice(ledger, Options{Timer: time.Minute, Clock: clock.Now})

	require.NoError(t, a.Bid("C", 500))
	winner, _, ok := a.Winner()
	assert.False(t, ok, "leader is %q", winner)

	require.NoError(t, a.Bid("B", 60))
	assert.True(t, a.Settled())
	winner, price, _ := a.Winner()
	assert.Equal(t, "B", winner)
	assert.Equal(t, int64(60), price)
}

func TestFirstPrice_DeadlineCloses(t *testing.T) {
	clock := newFakeClock()
	a := NewFirstPrice(sealedTestLedger(t), Options{Timer: time.Minute, Clock: clock.Now})

	require.NoError(t, a.Bid("B", 80))
	assert.False(t, a.Poll())

	clock.Advance(time.Minute)
	assert.True(t, a.Finished())
	assert.ErrorIs(t, a.Bid("C", 90), ErrAuctionClosed)

	require.True(t, a.Poll())
	assert.Equal(t, int64(20), participant(t, a.Ledger(), "B").Profits)
}

func TestFirstPrice_NoBidsGoesUnsold(t *testing.T) {
	clock := newFakeClock()
	a := NewFirstPrice(sealedTestLedger(t), Options{Timer: time.Minute, Clock: clock.Now})

	clock.Advance(2 * time.Minute)
	require.True(t, a.Poll())
	for _, name := range []string{"A", "B", "C"} {
		assert.Zero(t, participant(t, a.Ledger(), name).Profits)
	}
}

func TestSecondPrice_VickreySettlement(t *testing.T) {
	clock := newFakeClock()
	a := NewSecondPrice(sealedTestLedger(t), Options{Timer: time.Minute, Clock: clock.Now})

	assert.ErrorIs(t, a.Bid("A", 50), ErrIneligible)
	require.NoError(t, a.Bid("B", 80))
	require.NoError(t, a.Bid("C", 65))

	require.True(t, a.Settled())
	winner, price, ok := a.Winner()
	require.True(t, ok)
	assert.Equal(t, "B", winner)
	assert.Equal(t, int64(65), price)

	runnerUp, second, ok := a.RunnerUp()
	require.True(t, ok)
	assert.Equal(t, "C", runnerUp)
	assert.Equal(t, int64(65), second)

	assert.Equal(t, int64(35), participant(t, a.Ledger(), "B").Profits)
	assert.Equal(t, int64(935), participant(t, a.Ledger(), "B").Money)
	assert.Equal(t, int64(35), participant(t, a.Ledger(), "A").Profits)
	assert.Equal(t, int64(1065), participant(t, a.Ledger(), "A").Money)
	assert.Equal(t, int64(65), *a.Snapshot().Price)
}

func TestSecondPrice_SlotShifting(t *testing.T) {
	clock := newFakeClock()
	ledger := createTestLedger(t,
		testParticipant{name: "host", limit: 0, money: 0},
		testParticipant{name: "a", limit: 100, money: 1000},
		testParticipant{name: "b", limit: 100, money: 1000},
		testParticipant{name: "c", limit: 100, money: 1000},
		testParticipant{name: "d", limit: 100, money: 1000},
	)
	a := NewSecondPrice(ledger, Options{Timer: time.Minute, Clock: clock.Now})

	require.NoError(t, a.Bid("a", 10))
	require.NoError(t, a.Bid("b", 30)) // beats the top: a slides down
	runnerUp, second, _ := a.RunnerUp()
	assert.Equal(t, "a", runnerUp)
	assert.Equal(t, int64(10), second)

	require.NoError(t, a.Bid("c", 20)) // only beats second
	winner, _, _ := a.Winner()
	runnerUp, second, _ = a.RunnerUp()
	assert.Equal(t, "b", winner)
	assert.Equal(t, "c", runnerUp)
	assert.Equal(t, int64(20), second)

	require.NoError(t, a.Bid("d", 5)) // beats neither; closes the auction
	assert.True(t, a.Settled())
	winner, price, _ := a.Winner()
	assert.Equal(t, "b", winner)
	assert.Equal(t, int64(20), price)
}

func TestSecondPrice_SingleBidderPaysNothing(t *testing.T) {
	clock := newFakeClock()
	a := NewSecondPrice(sealedTestLedger(t), Options{Timer: time.Minute, Clock: clock.Now})

	require.NoError(t, a.Bid("B", 80))
	clock.Advance(time.Minute)
	require.True(t, a.Poll())

	assert.Equal(t, int64(100), participant(t, a.Ledger(), "B").Profits)
}

package auction

import (
	"testing"

	"agora/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCDA(t *testing.T) *DoubleAuction {
	t.Helper()
	ledger := createTestLedger(t,
		testParticipant{name: "host", limit: 0, money: 0},
		testParticipant{name: "B", limit: 120, money: 1000},
		testParticipant{name: "S", limit: 80, money: 1000},
	)
	clock := newFakeClock()
	return NewCDA(ledger, Options{Clock: clock.Now, StrictBook: true})
}

func TestCDA_EndToEnd(t *testing.T) {
	a := createTestCDA(t)

	askID, err := a.Ask("S", 5, 100, common.Limit)
	require.NoError(t, err)
	bidID, err := a.Bid("B", 5, 100, common.Limit)
	require.NoError(t, err)
	assert.NotEqual(t, askID, bidID)

	trades := a.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "B", trades[0].Buyer)
	assert.Equal(t, "S", trades[0].Seller)
	assert.Equal(t, uint64(5), trades[0].Quantity)
	assert.Equal(t, int64(100), trades[0].Price)

	assert.Equal(t, 0, a.Book().Len())
	snap := a.Snapshot()
	assert.Nil(t, snap.BestBid)
	assert.Nil(t, snap.BestAsk)
	assert.Empty(t, snap.BidDepth)
	assert.Empty(t, snap.AskDepth)
	assert.Equal(t, int64(100), *snap.Price)

	buyer := participant(t, a.Ledger(), "B")
	seller := participant(t, a.Ledger(), "S")
	assert.Equal(t, int64(500), buyer.Money)
	assert.Equal(t, int64(100), buyer.Profits)
	assert.Equal(t, int64(1500), seller.Money)
	assert.Equal(t, int64(100), seller.Profits)
}

func TestCDA_PartialFillRests(t *testing.T) {
	a := createTestCDA(t)

	_, err := a.Ask("S", 6, 100, common.Limit)
	require.NoError(t, err)
	bidID, err := a.Bid("B", 10, 105, common.Limit)
	require.NoError(t, err)

	require.Len(t, a.Trades(), 1)
	assert.Equal(t, uint64(6), a.Trades()[0].Quantity)
	assert.Equal(t, int64(100), a.Trades()[0].Price)

	rest, ok := a.Book().Order(bidID)
	require.True(t, ok)
	assert.Equal(t, uint64(4), rest.Quantity)
	assert.Equal(t, int64(105), *a.Snapshot().BestBid)
}

func TestCDA_Eligibility(t *testing.T) {
	a := createTestCDA(t)

	_, err := a.Bid("host", 1, 100, common.Limit)
	assert.ErrorIs(t, err, ErrIneligible)
	_, err = a.Ask("mallory", 1, 100, common.Limit)
	assert.ErrorIs(t, err, ErrIneligible)
	assert.Equal(t, 0, a.Book().Len())
}

func TestCDA_Cancel(t *testing.T) {
	a := createTestCDA(t)

	id, err := a.Bid("B", 3, 90, common.Limit)
	require.NoError(t, err)

	assert.False(t, a.Cancel("S", id))
	assert.True(t, a.Cancel("B", id))
	assert.False(t, a.Cancel("B", id))
	assert.Equal(t, 0, a.Book().Len())
}

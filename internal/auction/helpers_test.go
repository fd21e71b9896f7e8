package auction

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testParticipant is a username with a fixed valuation and cash.
type testParticipant struct {
	name  string
	limit int64
	money int64
}

// createTestLedger registers the auctioneer first, then the bidders.
func createTestLedger(t *testing.T, auctioneer testParticipant, bidders ...testParticipant) *Ledger {
	t.Helper()
	ledger := NewLedger(Fixed(0), Fixed(0), rand.New(rand.NewPCG(1, 2)))
	for _, tp := range append([]testParticipant{auctioneer}, bidders...) {
		p, added := ledger.Add(tp.name)
		require.True(t, added)
		p.LimitPrice = tp.limit
		p.Money = tp.money
	}
	ledger.SetAuctioneer(auctioneer.name)
	return ledger
}

func participant(t *testing.T, ledger *Ledger, name string) *Participant {
	t.Helper()
	p, ok := ledger.Get(name)
	require.True(t, ok, "participant %s", name)
	return p
}

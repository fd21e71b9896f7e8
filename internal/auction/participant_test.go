package auction

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AddRemoveIdempotent(t *testing.T) {
	ledger := NewLedger(Fixed(500), Fixed(1000), nil)

	p, added := ledger.Add("alice")
	require.True(t, added)
	assert.Equal(t, int64(500), p.LimitPrice)
	assert.Equal(t, int64(1000), p.Money)

	p.Profits = 7
	again, added := ledger.Add("alice")
	assert.False(t, added)
	assert.Same(t, p, again)
	assert.Equal(t, int64(7), again.Profits)

	assert.True(t, ledger.Remove("alice"))
	assert.False(t, ledger.Remove("alice"))
	assert.False(t, ledger.Remove("nobody"))
	assert.Equal(t, 0, ledger.Len())
}

func TestLedger_Bidders(t *testing.T) {
	ledger := NewLedger(Fixed(1), Fixed(1), nil)
	ledger.Add("host")
	ledger.Add("a")
	ledger.Add("b")
	assert.Equal(t, 3, ledger.Bidders())

	ledger.SetAuctioneer("host")
	assert.Equal(t, 2, ledger.Bidders())
	assert.True(t, ledger.IsAuctioneer("host"))
	assert.False(t, ledger.IsAuctioneer("a"))
	assert.Equal(t, []string{"a", "b", "host"}, ledger.Usernames())
}

func TestValuation_SampleWithinRange(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for _, dist := range []Distribution{Uniform, Normal} {
		v := Valuation{Distribution: dist, Min: 10, Max: 20}
		for i := 0; i < 1000; i++ {
			x := v.Sample(r)
			assert.GreaterOrEqual(t, x, int64(10))
			assert.LessOrEqual(t, x, int64(20))
		}
	}

	assert.Equal(t, int64(5), Valuation{Min: 5, Max: 5}.Sample(r))
	assert.Equal(t, int64(1500), MoneyRange{Min: 1500, Max: 1500}.Sample(r))
}

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution("Normal")
	require.NoError(t, err)
	assert.Equal(t, Normal, d)

	d, err = ParseDistribution("")
	require.NoError(t, err)
	assert.Equal(t, Uniform, d)

	_, err = ParseDistribution("poisson")
	assert.ErrorIs(t, err, ErrUnknownDistribution)
}

package auction

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{"100", 100},
		{" 42 ", 42},
		{"-3", -3},
		{float64(7), 7},
		{int(9), 9},
		{json.Number("12"), 12},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, "%v", c.in)
		assert.Equal(t, c.want, got)
	}

	for _, bad := range []any{"abc", "1.5", float64(2.5), nil, true, ""} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrMalformedAmount, "%v", bad)
	}

	_, err := ParseQuantity("-1")
	assert.ErrorIs(t, err, ErrMalformedAmount)
	q, err := ParseQuantity("5")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), q)
}

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{
		"dutch":   Dutch,
		"English": English,
		"FPSB":    FirstPriceSealedBid,
		"spsb":    SecondPriceSealedBid,
		"CDA":     ContinuousDouble,
	} {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("japanese")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_AllKinds(t *testing.T) {
	ledger := NewLedger(Fixed(1), Fixed(1), nil)
	for kind := range kindNames {
		m, err := New(kind, ledger, Options{})
		require.NoError(t, err)
		assert.Equal(t, kind, m.Kind())
		assert.Same(t, ledger, m.Ledger())
		assert.Equal(t, kind.String(), m.Snapshot().Kind)
	}
	_, err := New(Kind(99), ledger, Options{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCountdown(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.Equal(t, int64(30), *countdown(now.Add(30*time.Second), now))
	assert.Equal(t, int64(1), *countdown(now.Add(100*time.Millisecond), now))
	assert.Equal(t, int64(0), *countdown(now.Add(-time.Second), now))
}

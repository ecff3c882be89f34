package contracts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotQualifiedUnwraps(t *testing.T) {
	err := NotQualified("AAA", "market_cap", "below floor")
	assert.True(t, errors.Is(err, ErrNotQualified))
	assert.True(t, errors.Is(fmt.Errorf("screen: %w", err), ErrNotQualified))

	var nq *NotQualifiedError
	assert.True(t, errors.As(err, &nq))
	assert.Equal(t, "market_cap", nq.Reason)
	assert.Equal(t, "AAA: symbol does not qualify (market_cap: below floor)", err.Error())
}

func TestSuperinvestorActivity(t *testing.T) {
	assert.False(t, SuperinvestorActivity{}.HasAddition())
	assert.True(t, SuperinvestorActivity{Buys: 1}.HasAddition())
	assert.Equal(t, 6, SuperinvestorActivity{Buys: 1, Sells: 2, Holds: 3}.TotalActivity())
}

func TestNeutralQualitative(t *testing.T) {
	q := NeutralQualitative("no credential")
	assert.Equal(t, NeutralQualitativeScore, q.Management)
	assert.Equal(t, NeutralQualitativeScore, q.Sustainability)
	assert.True(t, q.Neutral)
	assert.Equal(t, "no credential", q.ManagementRationale)
}

func TestCandidateIsTopRanked(t *testing.T) {
	c := Candidate{Rank: 3}
	assert.True(t, c.IsTopRanked(5))
	assert.False(t, c.IsTopRanked(2))
	assert.False(t, (&Candidate{}).IsTopRanked(5))
}

package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

func cand(symbol string, smart int, total, delta float64) contracts.Candidate {
	return contracts.Candidate{
		Symbol: symbol,
		Score:  contracts.CompositeScore{SmartMoney: smart, Total: total, PriceDeltaPct: delta},
	}
}

func symbols(cs []contracts.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Symbol
	}
	return out
}

func TestRankPrecedence(t *testing.T) {
	input := []contracts.Candidate{
		cand("LOWSMART", 3, 19, 1), // highest total, weak smart money
		cand("TIEHIGH", 8, 15, 12), // ties TIELOW, higher delta
		cand("TIELOW", 8, 15, 4),   // ties TIEHIGH, lower delta
		cand("BESTTOT", 8, 17, 20), // same smart, higher total
		cand("TOPSMART", 10, 11, 30),
	}

	ranked := NewRanker(logger.Nop()).Rank(input)
	assert.Equal(t, []string{"TOPSMART", "BESTTOT", "TIELOW", "TIEHIGH", "LOWSMART"}, symbols(ranked))
	for i, c := range ranked {
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestRankTieOnTwoKeysLowerDeltaFirst(t *testing.T) {
	ranked := NewRanker(logger.Nop()).Rank([]contracts.Candidate{
		cand("AAA", 5, 12, 9.5),
		cand("BBB", 5, 12, 2.1),
	})
	assert.Equal(t, "BBB", ranked[0].Symbol)
}

func TestRankFullTiesKeepInputOrder(t *testing.T) {
	input := []contracts.Candidate{
		cand("C", 4, 10, 5),
		cand("A", 4, 10, 5),
		cand("B", 4, 10, 5),
	}
	r := NewRanker(logger.Nop())

	first := r.Rank(input)
	second := r.Rank(input)
	assert.Equal(t, []string{"C", "A", "B"}, symbols(first))
	assert.Equal(t, symbols(first), symbols(second))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []contracts.Candidate{cand("A", 1, 1, 1), cand("B", 2, 2, 2)}
	_ = NewRanker(logger.Nop()).Rank(input)
	assert.Equal(t, "A", input[0].Symbol)
	assert.Equal(t, 0, input[0].Rank)
}

func TestRankEmpty(t *testing.T) {
	ranked := NewRanker(logger.Nop()).Rank(nil)
	assert.Empty(t, ranked)
}

func TestTop(t *testing.T) {
	ranked := NewRanker(logger.Nop()).Rank([]contracts.Candidate{cand("A", 1, 1, 1), cand("B", 2, 2, 2)})
	require.Len(t, Top(ranked, 5), 2)
	assert.Equal(t, []string{"B"}, symbols(Top(ranked, 1)))
}

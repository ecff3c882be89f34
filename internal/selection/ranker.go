package selection

import (
	"sort"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

// Ranker orders scored candidates
// ⭐ SSOT: 랭킹 로직은 여기서만
//
// Precedence:
//  1. smart money score, descending
//  2. total score, descending
//  3. price delta pct (above 52w low), ascending
//  4. input order
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{
		logger: log.WithComponent("ranker"),
	}
}

// Rank returns a ranked copy of candidates with 1-based Rank set.
// The input slice is not modified.
func (r *Ranker) Rank(candidates []contracts.Candidate) []contracts.Candidate {
	ranked := make([]contracts.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i].Score, ranked[j].Score)
	})

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total_stocks": len(ranked),
			"top_symbol":   ranked[0].Symbol,
			"top_smart":    ranked[0].Score.SmartMoney,
			"top_score":    ranked[0].Score.Total,
		}).Info("Ranking completed")
	}

	return ranked
}

// Less reports whether a ranks strictly ahead of b
func Less(a, b contracts.CompositeScore) bool {
	if a.SmartMoney != b.SmartMoney {
		return a.SmartMoney > b.SmartMoney
	}
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	return a.PriceDeltaPct < b.PriceDeltaPct
}

// Top returns up to n leading candidates of an already ranked list
func Top(ranked []contracts.Candidate, n int) []contracts.Candidate {
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

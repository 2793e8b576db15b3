package analysis

import "github.com/quantfold/etfscope/internal/models"

// SelectFetchSet derives the bounded symbol set to fetch price history for:
// the fund itself first, then its top n holdings ranked descending by
// weight (stable on ties). The fund symbol is not deduplicated against the
// holdings; a fund holding itself appears twice in the set and the price
// stage fetches it once.
func SelectFetchSet(fundSymbol string, profile *models.FundProfile, n int) []string {
	set := []string{fundSymbol}
	if profile == nil {
		return set
	}

	for _, h := range profile.TopHoldings(n) {
		if h.Symbol == "" {
			continue
		}
		set = append(set, h.Symbol)
	}
	return set
}

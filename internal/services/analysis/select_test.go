package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfold/etfscope/internal/models"
)

func TestSelectFetchSet(t *testing.T) {
	profile := &models.FundProfile{
		Symbol: "QQQ",
		Holdings: []models.Holding{
			{Symbol: "MSFT", Weight: 0.3},
			{Symbol: "AAPL", Weight: 0.4},
			{Symbol: "NVDA", Weight: 0.2},
		},
	}

	set := SelectFetchSet("QQQ", profile, 2)
	assert.Equal(t, []string{"QQQ", "AAPL", "MSFT"}, set)
}

func TestSelectFetchSetNilProfile(t *testing.T) {
	set := SelectFetchSet("QQQ", nil, 11)
	assert.Equal(t, []string{"QQQ"}, set)
}

func TestSelectFetchSetSkipsBlankSymbols(t *testing.T) {
	profile := &models.FundProfile{
		Holdings: []models.Holding{
			{Symbol: "", Weight: 0.5},
			{Symbol: "IBM", Weight: 0.1},
		},
	}

	set := SelectFetchSet("XLK", profile, 5)
	assert.Equal(t, []string{"XLK", "IBM"}, set)
}

func TestSelectFetchSetFundHoldingItself(t *testing.T) {
	// A fund appearing in its own holdings stays duplicated in the set;
	// the price stage fetches each symbol once.
	profile := &models.FundProfile{
		Holdings: []models.Holding{
			{Symbol: "SPY", Weight: 0.9},
		},
	}

	set := SelectFetchSet("SPY", profile, 3)
	assert.Equal(t, []string{"SPY", "SPY"}, set)
}

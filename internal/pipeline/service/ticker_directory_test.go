package service

import (
	"testing"

	"golang-stock-advisor/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildTickerMapping(t *testing.T) {
	tickers := []entity.Ticker{
		{Symbol: "AAPL", LongName: "Apple Inc."},
		{Symbol: "msft", LongName: "Microsoft Corporation"},
		{Symbol: "GOOGL"},
		{Symbol: "", LongName: "No Symbol Corp"},
		{Symbol: "TSLA", LongName: "  "},
	}

	mapping := BuildTickerMapping(tickers)

	assert.Equal(t, "AAPL", mapping["aapl"])
	assert.Equal(t, "AAPL", mapping["apple inc."])
	assert.Equal(t, "MSFT", mapping["msft"])
	assert.Equal(t, "MSFT", mapping["microsoft corporation"])
	assert.Equal(t, "GOOGL", mapping["googl"])
	assert.Equal(t, "TSLA", mapping["tsla"])

	_, hasOrphanName := mapping["no symbol corp"]
	assert.False(t, hasOrphanName)
	_, hasBlank := mapping[""]
	assert.False(t, hasBlank)
}

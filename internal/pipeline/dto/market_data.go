package dto

// TiingoPrice is one daily price row from the Tiingo end-of-day endpoint.
type TiingoPrice struct {
	Date     string  `json:"date"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
}

// ClosingPrices holds the two most recent session closes for a ticker.
type ClosingPrices struct {
	Latest   float64
	Previous float64
}

// YahooQuoteSummary is the envelope of the Yahoo quoteSummary endpoint.
type YahooQuoteSummary struct {
	QuoteSummary struct {
		Result []YahooQuoteSummaryResult `json:"result"`
	} `json:"quoteSummary"`
}

// YahooQuoteSummaryResult holds the modules requested from quoteSummary.
type YahooQuoteSummaryResult struct {
	AssetProfile struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	DefaultKeyStatistics struct {
		Beta YahooRawValue `json:"beta"`
	} `json:"defaultKeyStatistics"`
}

// YahooRawValue is Yahoo's {raw, fmt} numeric wrapper.
type YahooRawValue struct {
	Raw float64 `json:"raw"`
}

// TickerFundamentals carries the scalar fundamentals refreshed onto a
// ticker record alongside the closes.
type TickerFundamentals struct {
	LongName         string
	Sector           string
	Industry         string
	MarketCap        float64
	Volume           int64
	FiftyTwoWeekHigh float64
	FiftyTwoWeekLow  float64
	DividendYield    float64
	Beta             float64
}

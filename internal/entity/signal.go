package entity

// Signal is a trading recommendation token.
type Signal string

const (
	SignalBuy  Signal = "Buy"
	SignalSell Signal = "Sell"
	SignalHold Signal = "Hold"
)

// Valid reports whether s is one of the three recognized tokens.
func (s Signal) Valid() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

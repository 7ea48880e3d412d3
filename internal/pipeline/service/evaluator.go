package service

import "golang-stock-advisor/internal/entity"

// Evaluate scores a recommendation against the next price movement.
// Buy and Hold are correct when the latest close did not fall below the
// previous close; Sell is correct when it did. A non-positive price means
// the movement is unknown and the recommendation stays unevaluated.
func Evaluate(signal entity.Signal, latestClose, previousClose float64) (correct, evaluated bool) {
	if latestClose <= 0 || previousClose <= 0 {
		return false, false
	}
	switch signal {
	case entity.SignalBuy, entity.SignalHold:
		return latestClose >= previousClose, true
	case entity.SignalSell:
		return latestClose < previousClose, true
	default:
		return false, false
	}
}

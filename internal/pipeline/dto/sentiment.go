package dto

// SentimentRequest is the inference request for the hosted classifier.
type SentimentRequest struct {
	Inputs string `json:"inputs"`
}

// SentimentPrediction is one (label, score) pair from the classifier.
// The model returns all three labels; the highest score wins.
type SentimentPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

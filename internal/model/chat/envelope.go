package chat

// Sentiment labels returned by the analysis model.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentResult is the model's judgment over the full transcript.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// Envelope is the enriched unit broadcast back to a conversation's
// live connection: the accepted message plus its analysis.
type Envelope struct {
	Message     Message         `json:"message"`
	Sentiment   SentimentResult `json:"sentiment"`
	Suggestions []string        `json:"suggestions"`
}

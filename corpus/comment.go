package corpus

// CommentType distinguishes the two phrase corpora.
type CommentType string

const (
	TypeWeather CommentType = "weather_comment"
	TypeAdvice  CommentType = "advice"
)

// PastComment is one normalized corpus phrase. Immutable after load.
type PastComment struct {
	Text   string      `json:"text"`
	Type   CommentType `json:"type"`
	Season Season      `json:"season"`
	Count  int         `json:"count"`
}

// CommentPair couples a weather phrase with an advice phrase chosen
// for the same season.
type CommentPair struct {
	Weather         PastComment `json:"weather"`
	Advice          PastComment `json:"advice"`
	SimilarityScore float64     `json:"similarity_score"`
	AdaptationScore float64     `json:"adaptation_score"`
}

// Valid reports whether the pair holds the structural invariant: same
// season, differing types.
func (p CommentPair) Valid() bool {
	return p.Weather.Season == p.Advice.Season &&
		p.Weather.Type == TypeWeather &&
		p.Advice.Type == TypeAdvice
}

package models

// Band identifies which threshold band a score falls into
type Band string

const (
	BandLow     Band = "low"
	BandAverage Band = "average"
	BandHigh    Band = "high"
)

// Norm holds reference thresholds and interpretations for scoring a scale
// within one demographic band (gender + age range).
type Norm struct {
	ID        string `json:"id"`
	ScaleName string `json:"scale_name"`
	Gender    string `json:"gender"`
	AgeMin    int    `json:"age_min"`
	AgeMax    int    `json:"age_max"`

	LowMax  float64 `json:"low_max"`
	AvgMin  float64 `json:"avg_min"`
	AvgMax  float64 `json:"avg_max"`
	HighMin float64 `json:"high_min"`

	LowText  string `json:"low_text"`
	AvgText  string `json:"avg_text"`
	HighText string `json:"high_text"`

	LowRecommendation  string `json:"low_recommendation,omitempty"`
	AvgRecommendation  string `json:"avg_recommendation,omitempty"`
	HighRecommendation string `json:"high_recommendation,omitempty"`
}

// MatchBand returns the band a score falls into. Scores between bands
// (gaps in the thresholds) resolve to the average band.
func (n *Norm) MatchBand(score float64) Band {
	switch {
	case score <= n.LowMax:
		return BandLow
	case score >= n.HighMin:
		return BandHigh
	default:
		return BandAverage
	}
}

// Interpretation returns the interpretation text for a score's band.
func (n *Norm) Interpretation(score float64) string {
	switch n.MatchBand(score) {
	case BandLow:
		return n.LowText
	case BandHigh:
		return n.HighText
	default:
		return n.AvgText
	}
}

// ReportScale is one scored scale in a report, carrying the user's computed
// score alongside the matched norm thresholds and interpretation.
type ReportScale struct {
	ChapterID      string  `json:"chapter_id"`
	ScaleName      string  `json:"scale_name"`
	Score          float64 `json:"score"`
	NormID         string  `json:"norm_id"`
	LowMax         float64 `json:"low_max"`
	AvgMin         float64 `json:"avg_min"`
	AvgMax         float64 `json:"avg_max"`
	HighMin        float64 `json:"high_min"`
	Band           Band    `json:"band"`
	Interpretation string  `json:"interpretation"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Report is the server-computed scoring summary for one (user, course) pair
type Report struct {
	UserID   string        `json:"user_id"`
	CourseID string        `json:"course_id"`
	Scales   []ReportScale `json:"scales"`
}

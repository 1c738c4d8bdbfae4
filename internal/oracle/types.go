package oracle

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PostContext describes the post a piece of content belongs to
type PostContext struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ModerationRequest asks the oracle to assess one piece of user content
type ModerationRequest struct {
	ContentType string       `json:"content_type"`
	Content     string       `json:"content"`
	Context     *PostContext `json:"context,omitempty"`
}

// ModerationAssessment is the oracle's structured moderation verdict
type ModerationAssessment struct {
	QualityScore     float64  `json:"quality_score"`
	IsSpam           bool     `json:"is_spam"`
	IsLowQuality     bool     `json:"is_low_quality"`
	ModerationFlags  []string `json:"moderation_flags"`
	Sentiment        Label    `json:"sentiment"`
	Constructiveness float64  `json:"constructiveness"`
	Relevance        float64  `json:"relevance"`
	Toxicity         float64  `json:"toxicity"`
	SpamIndicators   []string `json:"spam_indicators"`
	QualityFactors   []string `json:"quality_factors"`
	Recommendations  []string `json:"recommendations"`
}

// ReviewRequest asks the oracle to grade a submitted review
type ReviewRequest struct {
	ReviewID     string `json:"review_id"`
	Content      string `json:"content"`
	Rating       int    `json:"rating"`
	PostTitle    string `json:"post_title"`
	PostCategory string `json:"post_category"`
}

// ReviewAssessment is the oracle's structured review grade
type ReviewAssessment struct {
	QualityScore        float64  `json:"quality_score"`
	IsVerified          bool     `json:"is_verified"`
	IsFlagged           bool     `json:"is_flagged"`
	Depth               float64  `json:"depth"`
	Helpfulness         float64  `json:"helpfulness"`
	Accuracy            float64  `json:"accuracy"`
	Engagement          float64  `json:"engagement"`
	ReasoningQuality    string   `json:"reasoning_quality"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

// Label is a free-form classification the oracle may return as a string or a number
type Label string

// UnmarshalJSON accepts strings, numbers and null
func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*l = Label(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

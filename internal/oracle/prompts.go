package oracle

import (
	"fmt"
	"strings"
)

const moderationSystem = `You are a content moderator for a creator community. Assess the submitted content and reply with one JSON object with exactly these keys:
quality_score (number 0-100), is_spam (boolean), is_low_quality (boolean), moderation_flags (array of strings),
sentiment (string: positive, neutral or negative), constructiveness (number 0-100), relevance (number 0-100),
toxicity (number 0-100), spam_indicators (array of strings), quality_factors (array of strings), recommendations (array of strings).`

const reviewSystem = `You grade reviews written by community members. Evaluate depth, helpfulness, accuracy, engagement and reasoning quality, then reply with one JSON object with exactly these keys:
quality_score (number 0-100), is_verified (boolean), is_flagged (boolean), depth (number 0-100), helpfulness (number 0-100),
accuracy (number 0-100), engagement (number 0-100), reasoning_quality (one of: excellent, good, moderate, poor, none),
strengths (array of strings), areas_for_improvement (array of strings).`

const contentValueSystem = `You estimate how valuable a contribution is to a creator community: originality, effort, clarity and usefulness.
Reply with one JSON object with the single key quality_score (number 0-100).`

func moderationPrompt(req ModerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content type: %s\n", req.ContentType)
	if c := req.Context; c != nil {
		if c.Title != "" {
			fmt.Fprintf(&b, "Post title: %s\n", c.Title)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, "Post description: %s\n", c.Description)
		}
		if c.Category != "" {
			fmt.Fprintf(&b, "Post category: %s\n", c.Category)
		}
	}
	fmt.Fprintf(&b, "\nContent:\n%s", req.Content)
	return b.String()
}

func reviewPrompt(req ReviewRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed post: %s\n", req.PostTitle)
	fmt.Fprintf(&b, "Category: %s\n", req.PostCategory)
	fmt.Fprintf(&b, "Star rating given: %d/5\n", req.Rating)
	fmt.Fprintf(&b, "\nReview:\n%s", req.Content)
	return b.String()
}

func contentValuePrompt(contentType, content string) string {
	return fmt.Sprintf("Contribution type: %s\n\nContribution:\n%s", contentType, content)
}

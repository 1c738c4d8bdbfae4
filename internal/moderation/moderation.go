// Package moderation scores user content through the oracle and applies the
// accept/reject policy callers use before publishing it.
package moderation

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/oracle"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// Hard gates. Any one of them rejects the content.
const (
	MaxToxicity     = 70.0
	MinQualityScore = 10.0
)

// Oracle is the part of the oracle client the stage needs
type Oracle interface {
	Moderate(ctx context.Context, req oracle.ModerationRequest) (*oracle.ModerationAssessment, error)
}

// Result is the stage's assessment of one piece of content
type Result = oracle.ModerationAssessment

// Stage asks the oracle to assess content. It does not decide anything.
type Stage struct {
	oracle Oracle
}

// NewStage creates a new moderation stage
func NewStage(o Oracle) *Stage {
	return &Stage{oracle: o}
}

// Moderate assesses text of the given content type. postCtx is optional.
func (s *Stage) Moderate(ctx context.Context, contentType, text string, postCtx *oracle.PostContext) (*Result, error) {
	const op = "moderation.Moderate"

	if !validContentType(contentType) {
		return nil, apperr.InvalidInput(op, "unknown content type")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput(op, "content is required")
	}

	ctx, span := telemetry.StartSpan(ctx, op, attribute.String("content.type", contentType))
	res, err := s.oracle.Moderate(ctx, oracle.ModerationRequest{
		ContentType: contentType,
		Content:     text,
		Context:     postCtx,
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validContentType(t string) bool {
	switch t {
	case models.ContentTypePost, models.ContentTypeComment, models.ContentTypeReview:
		return true
	}
	return false
}

// Decision is the caller-side verdict on an assessment
type Decision struct {
	Allowed  bool     `json:"allowed"`
	Unscored bool     `json:"unscored"`
	Reasons  []string `json:"reasons"`
	Result   *Result  `json:"assessment,omitempty"`
}

// Decide applies the hard gates to an assessment. Reasons names every gate
// that fired.
func Decide(r *Result) Decision {
	d := Decision{Allowed: true, Reasons: []string{}, Result: r}
	if r.IsSpam {
		d.Reasons = append(d.Reasons, "spam")
	}
	if r.Toxicity > MaxToxicity {
		d.Reasons = append(d.Reasons, "toxicity")
	}
	if r.QualityScore < MinQualityScore {
		d.Reasons = append(d.Reasons, "low_quality")
	}
	d.Allowed = len(d.Reasons) == 0
	return d
}

// Gate runs the stage and the decision policy for publishing callers.
// Oracle outages let content through unscored; quota exhaustion and bad
// input do not.
type Gate struct {
	stage  *Stage
	logger *zap.Logger
}

// NewGate creates a new moderation gate
func NewGate(stage *Stage) *Gate {
	return &Gate{stage: stage, logger: logging.WithComponent("moderation")}
}

// Check moderates text and returns the publishing decision
func (g *Gate) Check(ctx context.Context, contentType, text string, postCtx *oracle.PostContext) (Decision, error) {
	res, err := g.stage.Moderate(ctx, contentType, text, postCtx)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindRateLimited, apperr.KindServiceError, apperr.KindFormatError:
			logging.FromContext(ctx, g.logger).Warn("Moderation unavailable, allowing content unscored",
				zap.String("content_type", contentType),
				zap.String("kind", apperr.KindOf(err).String()),
				zap.Error(err))
			telemetry.RecordModeration(ctx, contentType, "unscored")
			return Decision{Allowed: true, Unscored: true, Reasons: []string{}}, nil
		}
		return Decision{}, err
	}

	d := Decide(res)
	decision := "accept"
	if !d.Allowed {
		decision = "reject"
	}
	telemetry.RecordModeration(ctx, contentType, decision)
	return d, nil
}

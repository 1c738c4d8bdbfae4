package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/oracle"
)

type fakeOracle struct {
	res   *oracle.ModerationAssessment
	err   error
	calls int
	last  oracle.ModerationRequest
}

func (f *fakeOracle) Moderate(_ context.Context, req oracle.ModerationRequest) (*oracle.ModerationAssessment, error) {
	f.calls++
	f.last = req
	return f.res, f.err
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		res     Result
		allowed bool
		reasons []string
	}{
		{"clean", Result{QualityScore: 60, Toxicity: 5}, true, []string{}},
		{"spam with high quality", Result{IsSpam: true, Toxicity: 10, QualityScore: 90}, false, []string{"spam"}},
		{"toxicity at limit", Result{QualityScore: 50, Toxicity: 70}, true, []string{}},
		{"toxicity above limit", Result{QualityScore: 50, Toxicity: 70.5}, false, []string{"toxicity"}},
		{"quality at limit", Result{QualityScore: 10}, true, []string{}},
		{"quality below limit", Result{QualityScore: 9.9}, false, []string{"low_quality"}},
		{"every gate", Result{IsSpam: true, Toxicity: 95, QualityScore: 1}, false, []string{"spam", "toxicity", "low_quality"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.res
			d := Decide(&res)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reasons, d.Reasons)
		})
	}
}

func TestModerateRejectsEmptyText(t *testing.T) {
	o := &fakeOracle{}
	_, err := NewStage(o).Moderate(context.Background(), "post", "  \n\t ", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Zero(t, o.calls)
}

func TestModerateRejectsUnknownContentType(t *testing.T) {
	o := &fakeOracle{}
	_, err := NewStage(o).Moderate(context.Background(), "story", "hello", nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Zero(t, o.calls)
}

func TestModeratePassesContext(t *testing.T) {
	o := &fakeOracle{res: &oracle.ModerationAssessment{QualityScore: 70}}
	pc := &oracle.PostContext{Title: "Album drop", Category: "music"}

	res, err := NewStage(o).Moderate(context.Background(), "comment", "  great mix  ", pc)
	require.NoError(t, err)
	assert.Equal(t, 70.0, res.QualityScore)
	assert.Equal(t, "great mix", o.last.Content)
	assert.Equal(t, "comment", o.last.ContentType)
	assert.Same(t, pc, o.last.Context)
}

func TestGateRejectsSpam(t *testing.T) {
	o := &fakeOracle{res: &oracle.ModerationAssessment{IsSpam: true, Toxicity: 10, QualityScore: 90}}

	d, err := NewGate(NewStage(o)).Check(context.Background(), "post", "click my link", nil)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.False(t, d.Unscored)
	assert.Equal(t, []string{"spam"}, d.Reasons)
}

func TestGateFailsOpen(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.KindRateLimited, apperr.KindServiceError, apperr.KindFormatError} {
		t.Run(kind.String(), func(t *testing.T) {
			o := &fakeOracle{err: apperr.New(kind, "oracle", "down")}
			d, err := NewGate(NewStage(o)).Check(context.Background(), "post", "hello", nil)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.True(t, d.Unscored)
		})
	}
}

func TestGateSurfacesHardFailures(t *testing.T) {
	o := &fakeOracle{err: apperr.New(apperr.KindQuotaExhausted, "oracle", "quota")}
	_, err := NewGate(NewStage(o)).Check(context.Background(), "post", "hello", nil)
	assert.Equal(t, apperr.KindQuotaExhausted, apperr.KindOf(err))

	_, err = NewGate(NewStage(o)).Check(context.Background(), "post", "", nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

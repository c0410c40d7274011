package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
)

func newTestValidator(t *testing.T, model *fakeGenerator, source *fakeSource) *ContentValidator {
	t.Helper()
	extractor := NewKeyframeExtractor(source, &fakeSampler{duration: 6, frame: pngFrame(t, 48, 36)}, testPipelineConfig(), nil)
	return NewContentValidator(model, extractor, 0.9, nil)
}

func TestValidate_FallbackWithoutCredential(t *testing.T) {
	source := &fakeSource{}
	validator := newTestValidator(t, &fakeGenerator{}, source)

	result, err := validator.Validate(context.Background(), "front.mp4", entities.ShotTypeTres)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, 0.1, result.Confidence)
	assert.Equal(t, "no-classifier-fallback", result.Reason)
	assert.Equal(t, ValidationSourceFallback, result.Source)
	assert.Zero(t, source.downloads(), "no evidence is sampled without a classifier")
}

func TestValidate_TransportFailureFallsBack(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: func([]pkgai.Part) (string, error) {
		return "", &pkgai.HTTPError{StatusCode: 503, Body: "overloaded"}
	}}
	validator := newTestValidator(t, model, &fakeSource{})

	result, err := validator.Validate(context.Background(), "front.mp4", "")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, FallbackReason, result.Reason)
	assert.Equal(t, 1, model.calls, "calls are never retried")
}

func TestValidate_Decisions(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		accepted bool
		rec      string
	}{
		{"accept", `{"is_target":true,"confidence":0.95,"reason":"jump shot","recommendation":"accept"}`, true, RecommendationAccept},
		{"confident reject", `{"is_target":false,"confidence":0.96,"reason":"a cat video","recommendation":"REJECT"}`, false, RecommendationReject},
		{"reject at threshold", `{"is_target":true,"confidence":0.9,"reason":"no ball","recommendation":"REJECT"}`, false, RecommendationReject},
		{"unsure reject", `{"is_target":false,"confidence":0.6,"reason":"too dark","recommendation":"REJECT"}`, true, RecommendationReject},
		{"not target high confidence", `{"is_target":false,"confidence":0.92,"reason":"dribbling drill","recommendation":"REVIEW"}`, false, RecommendationReview},
		{"unknown recommendation", `{"is_target":true,"confidence":0.4,"reason":"partial view","recommendation":"MAYBE"}`, true, RecommendationReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeGenerator{credential: true, reply: staticReply(tt.reply)}
			validator := newTestValidator(t, model, &fakeSource{})

			result, err := validator.Validate(context.Background(), "front.mp4", entities.ShotTypeMedia)
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, result.Accepted)
			assert.Equal(t, tt.rec, result.Recommendation)
			assert.Equal(t, ValidationSourceAI, result.Source)
		})
	}
}

func TestValidate_ReasonStoredVerbatim(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: staticReply(`{"is_target":false,"confidence":0.99,"reason":"Video shows a soccer penalty kick","recommendation":"REJECT"}`)}
	validator := newTestValidator(t, model, &fakeSource{})

	result, err := validator.Validate(context.Background(), "front.mp4", "")
	require.NoError(t, err)
	assert.Equal(t, "Video shows a soccer penalty kick", result.Reason)

	// instruction, three frame markers with images, JSON demand
	assert.Len(t, model.lastParts, 1+2*3+1)
}

func TestValidate_SynthesizesMissingReason(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: staticReply(`{"is_target":false,"confidence":0.95,"reason":"  ","recommendation":"REJECT"}`)}
	validator := newTestValidator(t, model, &fakeSource{})

	result, err := validator.Validate(context.Background(), "front.mp4", "")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "REJECT")
	assert.Contains(t, result.Reason, "0.95")
}

func TestValidate_InvalidResponse(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: staticReply(`{"confidence":0.5}`)}
	validator := newTestValidator(t, model, &fakeSource{})

	_, err := validator.Validate(context.Background(), "front.mp4", "")
	assert.ErrorIs(t, err, usecaseErrors.ErrAIResponseInvalid)
}

func TestValidate_EvidenceFailure(t *testing.T) {
	source := &fakeSource{fails: map[string]error{"front.mp4": errors.New("no such key")}}
	validator := newTestValidator(t, &fakeGenerator{credential: true, reply: staticReply(`{}`)}, source)

	_, err := validator.Validate(context.Background(), "front.mp4", "")
	assert.Error(t, err)
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/shot-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/weights"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

type harness struct {
	svc       Service
	analyses  *repository.AnalysisRepository
	keyframes *repository.KeyframeRepository
	model     *fakeGenerator
	source    *fakeSource
}

func newHarness(t *testing.T, model *fakeGenerator, source *fakeSource, cfg config.PipelineConfig) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Analysis{}, &entities.Keyframe{}, &entities.WeightProfile{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	analyses := repository.NewAnalysisRepository(db)
	keyframes := repository.NewKeyframeRepository(db)
	sampler := &fakeSampler{duration: 13, frame: pngFrame(t, 48, 36)}
	extractor := NewKeyframeExtractor(source, sampler, cfg, nil)

	svc := NewService(Dependencies{
		Analyses:  analyses,
		Keyframes: keyframes,
		Profiles:  weights.NewStore(repository.NewWeightProfileRepository(db), nil),
		Validator: NewContentValidator(model, extractor, cfg.RejectConfidence, nil),
		Extractor: extractor,
		Boundary:  NewMotionBoundaryDetector(model, cfg.BoundaryFrames, cfg.BoundaryConfidence, nil),
		Rater:     NewChecklistRater(model, nil),
	}, cfg, nil)

	return &harness{svc: svc, analyses: analyses, keyframes: keyframes, model: model, source: source}
}

func (h *harness) submit(t *testing.T) *entities.Analysis {
	t.Helper()
	a, err := h.svc.Submit(context.Background(), SubmitInput{
		ShotLabel:    "Tiro de media distancia",
		PrimaryAngle: entities.AngleFront,
		Videos: map[entities.AngleName]string{
			entities.AngleFront: "s3://videos/front.mp4",
			entities.AngleLeft:  "s3://videos/left.mp4",
		},
	})
	require.NoError(t, err)
	return a
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *entities.Analysis {
	t.Helper()
	a, err := h.svc.Get(context.Background(), id)
	require.NoError(t, err)
	return a
}

func uniformChecklist(rating entities.Rating) []entities.ChecklistCategory {
	categories := make([]entities.ChecklistCategory, 0, len(weights.CanonicalChecklist))
	for _, tmpl := range weights.CanonicalChecklist {
		cat := entities.ChecklistCategory{Name: tmpl.Name}
		for _, it := range tmpl.Items {
			cat.Items = append(cat.Items, entities.ChecklistItem{ID: it.ID, Name: it.Name, Category: tmpl.Name, Rating: rating})
		}
		categories = append(categories, cat)
	}
	return categories
}

// scriptedReply answers each prompt kind like a cooperative model
func scriptedReply(t *testing.T) func([]pkgai.Part) (string, error) {
	checklist := checklistJSON(t, func(string) interface{} { return 4 })
	return func(parts []pkgai.Part) (string, error) {
		head := parts[0].Text
		switch {
		case strings.HasPrefix(head, "CONTENT CHECK"):
			return `{"is_target":true,"confidence":0.97,"reason":"single player jump shot","recommendation":"ACCEPT"}`, nil
		case strings.HasPrefix(head, "MOTION START"):
			return `{"index":2,"timestamp":3,"confidence":0.85,"rationale":"ball held at the hip"}`, nil
		case strings.HasPrefix(head, "MOTION END"):
			return `{"index":9,"timestamp":10,"confidence":0.8,"rationale":"ball past half flight"}`, nil
		case strings.HasPrefix(head, "TECHNIQUE CHECKLIST"):
			return checklist, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

func TestRun_FullPipelineWithModel(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: scriptedReply(t)}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	assert.Equal(t, entities.ShotTypeMedia, a.ShotType)

	require.NoError(t, h.svc.Run(context.Background(), a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusScored, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 80.0, *got.Score)
	assert.Equal(t, "media:v0", got.WeightProfileRef)
	assert.Equal(t, entities.ChecklistSourceAI, got.ChecklistSource)

	boundary := got.Boundary.Data()
	require.NotNil(t, boundary)
	assert.Equal(t, entities.BoundarySourceAI, boundary.Source)
	assert.Equal(t, entities.AngleFront, boundary.Angle)
	assert.Equal(t, 2, boundary.StartFrameIndex)
	assert.Equal(t, 3.0, boundary.StartTimestamp)
	assert.Equal(t, 10.0, boundary.EndTimestamp)

	counts, err := h.keyframes.CountByAngle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[entities.AngleName]int{entities.AngleFront: 12, entities.AngleLeft: 12}, counts)

	assert.Equal(t, 4, model.calls, "validate, start, end and rate, each exactly once")
}

func TestRun_CoercedRatingsBecomeWarnings(t *testing.T) {
	scripted := scriptedReply(t)
	coerced := checklistJSON(t, func(id string) interface{} {
		if id == "set_point" {
			return 9
		}
		return 4
	})
	model := &fakeGenerator{credential: true, reply: func(parts []pkgai.Part) (string, error) {
		if strings.HasPrefix(parts[0].Text, "TECHNIQUE CHECKLIST") {
			return coerced, nil
		}
		return scripted(parts)
	}}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)

	require.NoError(t, h.svc.Run(context.Background(), a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusScored, got.Status)
	assert.Contains(t, got.Warnings.Data(), "rating for set_point coerced from 9 to 5")
}

func TestRun_ParksWithoutCredentialUntilChecklist(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)

	require.NoError(t, h.svc.Run(context.Background(), a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusBounded, got.Status)
	assert.Equal(t, AwaitingChecklistReason, got.StatusReason)
	assert.Equal(t, FallbackReason, got.Validation.Data().Reason)
	assert.True(t, got.Boundary.Data().IsHeuristic())
	assert.Len(t, got.Warnings.Data(), 2)

	scored, err := h.svc.SubmitChecklist(context.Background(), a.ID, uniformChecklist(entities.Rated(3)))
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisStatusScored, scored.Status)
	assert.Equal(t, 60.0, *scored.Score)
	assert.Equal(t, entities.ChecklistSourceManual, scored.ChecklistSource)

	stored := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusScored, stored.Status)
	assert.Equal(t, "alta", stored.Breakdown.Data().Confidence)

	// a corrected checklist replaces the scored one
	rescored, err := h.svc.SubmitChecklist(context.Background(), a.ID, uniformChecklist(entities.Rated(5)))
	require.NoError(t, err)
	assert.Equal(t, 100.0, *rescored.Score)
}

func TestRun_RejectionStopsThePipeline(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: staticReply(`{"is_target":false,"confidence":0.95,"reason":"Video shows a volleyball serve","recommendation":"REJECT"}`)}
	source := &fakeSource{}
	h := newHarness(t, model, source, testPipelineConfig())
	a := h.submit(t)

	require.NoError(t, h.svc.Run(context.Background(), a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusRejected, got.Status)
	assert.Equal(t, "Video shows a volleyball serve", got.StatusReason)
	assert.False(t, got.Validation.Data().Accepted)
	assert.Nil(t, got.Boundary.Data())

	counts, err := h.keyframes.CountByAngle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Equal(t, 1, source.downloads(), "only the evidence frames were read")
}

func TestRun_PartialExtractionFailure(t *testing.T) {
	source := &fakeSource{fails: map[string]error{"s3://videos/left.mp4": errors.New("object not found")}}
	h := newHarness(t, &fakeGenerator{}, source, testPipelineConfig())
	a := h.submit(t)

	require.NoError(t, h.svc.Run(context.Background(), a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusBounded, got.Status)

	left, ok := got.Angle(entities.AngleLeft)
	require.True(t, ok)
	assert.True(t, left.Failed)
	assert.Contains(t, left.Error, "object not found")

	front, _ := got.Angle(entities.AngleFront)
	assert.Equal(t, 12, front.KeyframeCount)

	found := false
	for _, w := range got.Warnings.Data() {
		if strings.Contains(w, usecaseErrors.ErrExtractionPartialFailure.Error()) {
			found = true
		}
	}
	assert.True(t, found, "partial failure is surfaced as a warning")
}

func TestRun_AllAnglesFail(t *testing.T) {
	source := &fakeSource{fails: map[string]error{
		"s3://videos/front.mp4": errors.New("gone"),
		"s3://videos/left.mp4":  errors.New("gone"),
	}}
	h := newHarness(t, &fakeGenerator{}, source, testPipelineConfig())
	a := h.submit(t)

	err := h.svc.Run(context.Background(), a.ID)
	assert.ErrorIs(t, err, usecaseErrors.ErrExtractionFailed)

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusError, got.Status)
	assert.Contains(t, got.StatusReason, usecaseErrors.ErrExtractionFailed.Error())
}

func TestRun_InvalidBoundaryResponseIsFatal(t *testing.T) {
	scripted := scriptedReply(t)
	model := &fakeGenerator{credential: true, reply: func(parts []pkgai.Part) (string, error) {
		if strings.HasPrefix(parts[0].Text, "MOTION START") {
			return "The motion starts around the third frame.", nil
		}
		return scripted(parts)
	}}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)

	err := h.svc.Run(context.Background(), a.ID)
	assert.ErrorIs(t, err, usecaseErrors.ErrAIResponseInvalid)

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusError, got.Status)
	assert.True(t, got.Validation.Data().Accepted, "earlier stages stay persisted")

	counts, err := h.keyframes.CountByAngle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, counts[entities.AngleFront])
}

func TestReanalyze_ReusesKeyframes(t *testing.T) {
	source := &fakeSource{}
	h := newHarness(t, &fakeGenerator{}, source, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()

	require.NoError(t, h.svc.Run(ctx, a.ID))
	assert.Equal(t, 2, source.downloads())

	reset, err := h.svc.Reanalyze(ctx, a.ID, "coach asked for a second look")
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisStatusValidated, reset.Status)
	assert.Nil(t, reset.Boundary.Data())

	require.NoError(t, h.svc.Run(ctx, a.ID))
	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusBounded, got.Status)
	assert.Equal(t, 2, source.downloads(), "stored keyframes are not extracted again")

	counts, err := h.keyframes.CountByAngle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, counts[entities.AngleFront])
}

func TestReanalyze_RejectedRunsValidationAgain(t *testing.T) {
	model := &fakeGenerator{credential: true, reply: staticReply(`{"is_target":false,"confidence":0.95,"reason":"Video shows a volleyball serve","recommendation":"REJECT"}`)}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()

	require.NoError(t, h.svc.Run(ctx, a.ID))
	require.Equal(t, entities.AnalysisStatusRejected, h.reload(t, a.ID).Status)

	reset, err := h.svc.Reanalyze(ctx, a.ID, "coach says it is a jump shot")
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisStatusPending, reset.Status)
	assert.Nil(t, reset.Validation.Data())

	model.reply = scriptedReply(t)
	model.calls = 0
	require.NoError(t, h.svc.Run(ctx, a.ID))

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusScored, got.Status)
	assert.Equal(t, "single player jump shot", got.Validation.Data().Reason)
	assert.Equal(t, 4, model.calls, "the content check runs again before the later stages")
}

func TestReanalyze_PendingIsRejected(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)

	_, err := h.svc.Reanalyze(context.Background(), a.ID, "")
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)
}

func TestCancel_AbandonsBetweenStages(t *testing.T) {
	model := &fakeGenerator{credential: true}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()

	scripted := scriptedReply(t)
	var once sync.Once
	model.reply = func(parts []pkgai.Part) (string, error) {
		once.Do(func() { require.NoError(t, h.svc.Cancel(ctx, a.ID)) })
		return scripted(parts)
	}

	err := h.svc.Run(ctx, a.ID)
	assert.ErrorIs(t, err, usecaseErrors.ErrRunAbandoned)
	assert.ErrorIs(t, err, usecaseErrors.ErrRunCancelled)

	got := h.reload(t, a.ID)
	assert.Equal(t, entities.AnalysisStatusError, got.Status)
	assert.Equal(t, "cancelled at validated", got.StatusReason)
	assert.True(t, got.Validation.Data().Accepted, "the in-flight stage completes and persists")
	assert.Nil(t, got.ClaimedAt)
	counts, err := h.keyframes.CountByAngle(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)

	runnable, err := h.analyses.FindRunnable(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runnable, "a cancelled analysis is not polled again")

	require.NoError(t, h.svc.Run(ctx, a.ID))
	assert.Equal(t, entities.AnalysisStatusError, h.reload(t, a.ID).Status)
	assert.Equal(t, 1, model.calls, "no model call is made after the cancel")
}

func TestRun_ShutdownLeavesAnalysisResumable(t *testing.T) {
	model := &fakeGenerator{credential: true}
	h := newHarness(t, model, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	scripted := scriptedReply(t)
	var once sync.Once
	model.reply = func(parts []pkgai.Part) (string, error) {
		once.Do(stop)
		return scripted(parts)
	}

	err := h.svc.Run(runCtx, a.ID)
	assert.ErrorIs(t, err, usecaseErrors.ErrRunAbandoned)
	assert.NotErrorIs(t, err, usecaseErrors.ErrRunCancelled)

	ctx := context.Background()
	assert.Equal(t, entities.AnalysisStatusValidated, h.reload(t, a.ID).Status)
	runnable, err := h.analyses.FindRunnable(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runnable, 1)
	assert.Equal(t, a.ID, runnable[0].ID)

	require.NoError(t, h.svc.Run(ctx, a.ID))
	assert.Equal(t, entities.AnalysisStatusScored, h.reload(t, a.ID).Status)
}

func TestCancel_NotRunning(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	ctx := context.Background()

	pending := h.submit(t)
	require.NoError(t, h.svc.Cancel(ctx, pending.ID))
	got := h.reload(t, pending.ID)
	assert.Equal(t, entities.AnalysisStatusError, got.Status)
	assert.Equal(t, "cancelled before processing", got.StatusReason)

	assert.ErrorIs(t, h.svc.Cancel(ctx, pending.ID), usecaseErrors.ErrConflict)
	assert.ErrorIs(t, h.svc.Cancel(ctx, uuid.New()), usecaseErrors.ErrNotFound)
}

func TestRun_ClaimConflicts(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()

	ok, err := h.analyses.Claim(ctx, a.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, h.svc.Run(ctx, a.ID), usecaseErrors.ErrAlreadyClaimed)
	_, err = h.svc.SubmitChecklist(ctx, a.ID, uniformChecklist(entities.Rated(2)))
	assert.ErrorIs(t, err, usecaseErrors.ErrConflict)

	assert.ErrorIs(t, h.svc.Run(ctx, uuid.New()), usecaseErrors.ErrNotFound)
}

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	ctx := context.Background()

	tests := map[string]SubmitInput{
		"no videos":     {ShotLabel: "tres"},
		"unknown angle": {Videos: map[entities.AngleName]string{"top": "s3://videos/top.mp4"}},
		"empty uri":     {Videos: map[entities.AngleName]string{entities.AngleBack: " "}},
		"missing primary": {
			PrimaryAngle: entities.AngleRight,
			Videos:       map[entities.AngleName]string{entities.AngleBack: "s3://videos/back.mp4"},
		},
		"bad shot type": {ShotType: "hook", Videos: map[entities.AngleName]string{entities.AngleBack: "s3://videos/back.mp4"}},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Submit(ctx, input)
			assert.ErrorIs(t, err, usecaseErrors.ErrInvalidInput)
		})
	}

	a, err := h.svc.Submit(ctx, SubmitInput{
		ShotLabel: "Tiro libre",
		ShotType:  entities.ShotTypeTres,
		Videos:    map[entities.AngleName]string{entities.AngleBack: "s3://videos/back.mp4", entities.AngleRight: "s3://videos/right.mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ShotTypeTres, a.ShotType, "an explicit shot type wins over the label")
	assert.Equal(t, entities.AngleRight, a.PrimaryAngle)
	assert.Equal(t, entities.AnalysisStatusPending, a.Status)
}

func TestSubmitChecklist_Rules(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()

	_, err := h.svc.SubmitChecklist(ctx, a.ID, uniformChecklist(entities.Rated(4)))
	assert.ErrorIs(t, err, entities.ErrInvalidTransition, "pending analyses do not accept a checklist")

	dup := []entities.ChecklistCategory{{Name: "Fluidez", Items: []entities.ChecklistItem{
		{ID: "tiro_un_solo_tiempo", Rating: entities.Rated(3)},
		{ID: "tiro_un_solo_tiempo", Rating: entities.Rated(4)},
	}}}
	_, err = h.svc.SubmitChecklist(ctx, a.ID, dup)
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidInput)

	_, err = h.svc.SubmitChecklist(ctx, a.ID, nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidInput)
}

func TestSubmitChecklist_AllNotApplicable(t *testing.T) {
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, testPipelineConfig())
	a := h.submit(t)
	ctx := context.Background()
	require.NoError(t, h.svc.Run(ctx, a.ID))

	scored, err := h.svc.SubmitChecklist(ctx, a.ID, uniformChecklist(entities.NotApplicable()))
	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisStatusScored, scored.Status)
	assert.Equal(t, 0.0, *scored.Score)
	assert.True(t, scored.ScoreUnresolvable)
	assert.Contains(t, scored.Warnings.Data(), usecaseErrors.ErrScoreUnresolvable.Error())
}

func TestWorkerPool_ProcessesQueuedAnalyses(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.RunTimeout = 5 * time.Second
	h := newHarness(t, &fakeGenerator{}, &fakeSource{}, cfg)
	ctx := context.Background()

	require.NoError(t, h.svc.StartWorkerPool(ctx))
	assert.Error(t, h.svc.StartWorkerPool(ctx), "a second start is refused")

	a := h.submit(t)
	require.Eventually(t, func() bool {
		got, err := h.svc.Get(ctx, a.ID)
		return err == nil && got.Status == entities.AnalysisStatusBounded
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, h.svc.StopWorkerPool())
	assert.Error(t, h.svc.StopWorkerPool())
}

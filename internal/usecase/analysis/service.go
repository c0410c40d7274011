package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	domainrepo "github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
	"github.com/johnquangdev/shot-analyzer/pkg/jobcontext"
)

// Run triggers
const (
	TriggerQueue  = "queue"
	TriggerDirect = "direct"
)

const tracerName = "github.com/johnquangdev/shot-analyzer/internal/usecase/analysis"

// Service defines analysis pipeline methods
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*entities.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.Analysis, error)
	Enqueue(id uuid.UUID) bool
	Run(ctx context.Context, id uuid.UUID) error
	Reanalyze(ctx context.Context, id uuid.UUID, reason string) (*entities.Analysis, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	SubmitChecklist(ctx context.Context, id uuid.UUID, categories []entities.ChecklistCategory) (*entities.Analysis, error)
	StartWorkerPool(ctx context.Context) error
	StopWorkerPool() error
}

// SubmitInput describes a new analysis request
type SubmitInput struct {
	ShotLabel    string
	ShotType     entities.ShotType
	PrimaryAngle entities.AngleName
	Videos       map[entities.AngleName]string
}

// ProfileSource resolves the weight profile of a shot type
type ProfileSource interface {
	Get(ctx context.Context, shotType entities.ShotType) (*entities.WeightProfile, error)
}

// Dependencies groups the collaborators of the pipeline
type Dependencies struct {
	Analyses  domainrepo.AnalysisRepository
	Keyframes domainrepo.KeyframeRepository
	Profiles  ProfileSource
	Validator *ContentValidator
	Extractor *KeyframeExtractor
	Boundary  *MotionBoundaryDetector
	Rater     *ChecklistRater
}

type analysisService struct {
	analyses  domainrepo.AnalysisRepository
	keyframes domainrepo.KeyframeRepository
	profiles  ProfileSource
	validator *ContentValidator
	extractor *KeyframeExtractor
	detector  *MotionBoundaryDetector
	rater     *ChecklistRater
	cfg       config.PipelineConfig
	logger    *zap.Logger
	tracer    trace.Tracer

	queue chan uuid.UUID

	runMutex sync.Mutex
	running  map[uuid.UUID]context.CancelCauseFunc

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	workerCancel        context.CancelFunc
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewService constructs the analysis orchestrator
func NewService(deps Dependencies, cfg config.PipelineConfig, logger *zap.Logger) Service {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &analysisService{
		analyses:  deps.Analyses,
		keyframes: deps.Keyframes,
		profiles:  deps.Profiles,
		validator: deps.Validator,
		extractor: deps.Extractor,
		detector:  deps.Boundary,
		rater:     deps.Rater,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		queue:     make(chan uuid.UUID, queueSize),
		running:   make(map[uuid.UUID]context.CancelCauseFunc),
	}
}

// Submit stores a pending analysis and queues it
func (s *analysisService) Submit(ctx context.Context, input SubmitInput) (*entities.Analysis, error) {
	if len(input.Videos) == 0 {
		return nil, fmt.Errorf("%w: at least one video angle is required", usecaseErrors.ErrInvalidInput)
	}
	for name, uri := range input.Videos {
		if _, err := entities.ParseAngle(string(name)); err != nil {
			return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidInput, err)
		}
		if strings.TrimSpace(uri) == "" {
			return nil, fmt.Errorf("%w: angle %s has no video reference", usecaseErrors.ErrInvalidInput, name)
		}
	}

	primary := input.PrimaryAngle
	if primary == "" {
		for _, name := range entities.Angles {
			if _, ok := input.Videos[name]; ok {
				primary = name
				break
			}
		}
	}
	if _, ok := input.Videos[primary]; !ok {
		return nil, fmt.Errorf("%w: primary angle %q was not submitted", usecaseErrors.ErrInvalidInput, primary)
	}

	analysis := entities.NewAnalysis(input.ShotLabel, primary, input.Videos)
	if input.ShotType != "" {
		if !input.ShotType.IsValid() {
			return nil, fmt.Errorf("%w: unknown shot type %q", usecaseErrors.ErrInvalidInput, input.ShotType)
		}
		analysis.ShotType = input.ShotType
	}

	if err := s.analyses.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📥 Analysis submitted",
			zap.String("analysis_id", analysis.ID.String()),
			zap.String("shot_type", string(analysis.ShotType)),
			zap.Int("angles", len(input.Videos)),
		)
	}

	s.Enqueue(analysis.ID)
	return analysis, nil
}

// Get returns an analysis by id
func (s *analysisService) Get(ctx context.Context, id uuid.UUID) (*entities.Analysis, error) {
	analysis, err := s.analyses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	if analysis == nil {
		return nil, usecaseErrors.ErrNotFound
	}
	return analysis, nil
}

// Enqueue hands an analysis to the worker pool without blocking. A full
// queue is not an error; the poller picks the analysis up later.
func (s *analysisService) Enqueue(id uuid.UUID) bool {
	select {
	case s.queue <- id:
		return true
	default:
		if s.logger != nil {
			s.logger.Warn("⚠️ Analysis queue full, leaving it to the poller",
				zap.String("analysis_id", id.String()),
			)
		}
		return false
	}
}

// Run drives an analysis through the pipeline in the calling goroutine
func (s *analysisService) Run(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, id, TriggerDirect, -1)
}

// Reanalyze rewinds an analysis for another run, keeping stored keyframes.
// Rejected analyses go back through the content check.
func (s *analysisService) Reanalyze(ctx context.Context, id uuid.UUID, reason string) (*entities.Analysis, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "reanalysis requested"
	}

	var analysis *entities.Analysis
	err := s.withClaim(ctx, id, func(a *entities.Analysis) error {
		if err := a.ResetForReanalysis(reason); err != nil {
			return err
		}
		analysis = a
		return s.analyses.SaveProgress(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("🔁 Analysis reset for reanalysis",
			zap.String("analysis_id", id.String()),
			zap.String("reason", reason),
		)
	}

	s.Enqueue(id)
	return analysis, nil
}

// Cancel abandons a running analysis at its next stage boundary and moves
// it to error so the poller does not resume it. A pending analysis that
// has not started yet is moved to error directly.
func (s *analysisService) Cancel(ctx context.Context, id uuid.UUID) error {
	s.runMutex.Lock()
	abandon, running := s.running[id]
	s.runMutex.Unlock()
	if running {
		abandon(usecaseErrors.ErrRunCancelled)
		if s.logger != nil {
			s.logger.Info("🛑 Analysis cancellation requested", zap.String("analysis_id", id.String()))
		}
		return nil
	}

	return s.withClaim(ctx, id, func(a *entities.Analysis) error {
		if a.Status != entities.AnalysisStatusPending {
			return fmt.Errorf("%w: analysis is not running (status %s)", usecaseErrors.ErrConflict, a.Status)
		}
		if err := a.TransitionTo(entities.AnalysisStatusError, "cancelled before processing"); err != nil {
			return err
		}
		return s.analyses.SaveProgress(ctx, a)
	})
}

// SubmitChecklist attaches a coach-provided checklist and scores it
func (s *analysisService) SubmitChecklist(ctx context.Context, id uuid.UUID, categories []entities.ChecklistCategory) (*entities.Analysis, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: checklist is empty", usecaseErrors.ErrInvalidInput)
	}
	if err := entities.ValidateChecklist(categories); err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidInput, err)
	}

	var analysis *entities.Analysis
	err := s.withClaim(ctx, id, func(a *entities.Analysis) error {
		if err := a.AttachChecklist(categories, entities.ChecklistSourceManual); err != nil {
			return err
		}
		if err := s.analyses.SaveProgress(ctx, a); err != nil {
			return err
		}
		analysis = a
		return s.stage(ctx, a, "score", func(ctx context.Context) error {
			return s.scoreStage(ctx, a)
		})
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// withClaim holds the worker claim on an analysis while fn mutates it
func (s *analysisService) withClaim(ctx context.Context, id uuid.UUID, fn func(a *entities.Analysis) error) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	ok, err := s.analyses.Claim(ctx, id, time.Now().Add(-s.runTimeout()))
	if err != nil {
		return fmt.Errorf("failed to claim analysis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: analysis is being processed", usecaseErrors.ErrConflict)
	}
	defer s.release(ctx, id)

	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fn(a)
}

func (s *analysisService) release(ctx context.Context, id uuid.UUID) {
	if err := s.analyses.Release(context.WithoutCancel(ctx), id); err != nil && s.logger != nil {
		s.logger.Error("❌ Failed to release analysis claim",
			zap.String("analysis_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *analysisService) runTimeout() time.Duration {
	if s.cfg.RunTimeout <= 0 {
		return 5 * time.Minute
	}
	return s.cfg.RunTimeout
}

// run claims an analysis and advances it stage by stage. Stage calls use a
// context that only the run timeout can interrupt; cancellation is
// observed between stages.
func (s *analysisService) run(ctx context.Context, id uuid.UUID, trigger string, workerID int) error {
	ok, err := s.analyses.Claim(ctx, id, time.Now().Add(-s.runTimeout()))
	if err != nil {
		return fmt.Errorf("failed to claim analysis: %w", err)
	}
	if !ok {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return usecaseErrors.ErrAlreadyClaimed
	}
	defer s.release(ctx, id)

	abandonCtx, abandon := context.WithCancelCause(ctx)
	defer abandon(nil)
	s.runMutex.Lock()
	s.running[id] = abandon
	s.runMutex.Unlock()
	defer func() {
		s.runMutex.Lock()
		delete(s.running, id)
		s.runMutex.Unlock()
	}()

	runCtx, cancel := jobcontext.RunBegin(context.WithoutCancel(ctx), id, trigger, workerID, s.runTimeout())
	defer cancel()

	return jobcontext.RunEnd(runCtx, func(runCtx context.Context) error {
		return s.pipeline(runCtx, abandonCtx, id)
	})
}

func (s *analysisService) pipeline(ctx, abandonCtx context.Context, id uuid.UUID) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	meta := jobcontext.GetRunMetadata(ctx)
	if s.logger != nil {
		s.logger.Info("🚀 Analysis run started",
			zap.String("analysis_id", id.String()),
			zap.String("status", string(a.Status)),
			zap.String("trigger", meta.Trigger),
			zap.Int("worker_id", meta.WorkerID),
		)
	}

	for !a.Status.IsTerminal() {
		if abandonCtx.Err() != nil {
			return s.abandon(ctx, a, context.Cause(abandonCtx))
		}

		from := a.Status
		parked := false
		var err error
		switch from {
		case entities.AnalysisStatusPending:
			err = s.stage(ctx, a, "validate", func(ctx context.Context) error { return s.validateStage(ctx, a) })
		case entities.AnalysisStatusValidated:
			err = s.stage(ctx, a, "extract", func(ctx context.Context) error { return s.extractStage(ctx, a) })
		case entities.AnalysisStatusExtracted:
			err = s.stage(ctx, a, "bound", func(ctx context.Context) error { return s.boundStage(ctx, a) })
		case entities.AnalysisStatusBounded:
			err = s.stage(ctx, a, "rate", func(ctx context.Context) error {
				var rerr error
				parked, rerr = s.rateStage(ctx, a)
				return rerr
			})
		case entities.AnalysisStatusRated:
			err = s.stage(ctx, a, "score", func(ctx context.Context) error { return s.scoreStage(ctx, a) })
		default:
			return fmt.Errorf("%w: no stage runs from %s", usecaseErrors.ErrInvalidTransition, from)
		}

		if err != nil {
			s.fail(ctx, a, from, err)
			return err
		}
		if parked {
			return nil
		}
	}

	if s.logger != nil {
		s.logger.Info("✅ Analysis run finished",
			zap.String("analysis_id", id.String()),
			zap.String("status", string(a.Status)),
			zap.Duration("elapsed", time.Since(meta.StartTime)),
		)
	}
	return nil
}

// abandon stops a run between stages. A shutdown leaves the analysis
// where it is for the poller; a cancel request makes it terminal.
func (s *analysisService) abandon(ctx context.Context, a *entities.Analysis, cause error) error {
	at := a.Status
	if s.logger != nil {
		s.logger.Warn("🛑 Analysis run abandoned",
			zap.String("analysis_id", a.ID.String()),
			zap.String("status", string(at)),
			zap.NamedError("cause", cause),
		)
	}
	if !errors.Is(cause, usecaseErrors.ErrRunCancelled) {
		return fmt.Errorf("%w: stopped at %s", usecaseErrors.ErrRunAbandoned, at)
	}

	if err := a.TransitionTo(entities.AnalysisStatusError, fmt.Sprintf("cancelled at %s", at)); err != nil {
		return err
	}
	if err := s.analyses.SaveProgress(context.WithoutCancel(ctx), a); err != nil {
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}
	return fmt.Errorf("%w: %w at %s", usecaseErrors.ErrRunAbandoned, usecaseErrors.ErrRunCancelled, at)
}

// fail records a stage failure as the error status
func (s *analysisService) fail(ctx context.Context, a *entities.Analysis, from entities.AnalysisStatus, cause error) {
	reason := fmt.Sprintf("stage after %s failed: %v", from, cause)
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = fmt.Sprintf("run timed out after %s", from)
	}

	if s.logger != nil {
		s.logger.Error("❌ Analysis stage failed",
			zap.String("analysis_id", a.ID.String()),
			zap.String("status", string(from)),
			zap.Error(cause),
		)
	}

	if err := a.TransitionTo(entities.AnalysisStatusError, reason); err != nil {
		return
	}
	if err := s.analyses.SaveProgress(context.WithoutCancel(ctx), a); err != nil && s.logger != nil {
		s.logger.Error("❌ Failed to persist error status",
			zap.String("analysis_id", a.ID.String()),
			zap.Error(err),
		)
	}
}

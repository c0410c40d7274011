package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/scoring"
)

// AwaitingChecklistReason parks an analysis at bounded until a coach
// submits the checklist
const AwaitingChecklistReason = "awaiting manual checklist"

// stage wraps one pipeline step in a span
func (s *analysisService) stage(ctx context.Context, a *entities.Analysis, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "analysis."+name, trace.WithAttributes(
		attribute.String("analysis.id", a.ID.String()),
		attribute.String("analysis.shot_type", string(a.ShotType)),
		attribute.String("analysis.status", string(a.Status)),
	))
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("analysis.next_status", string(a.Status)))

	if s.logger != nil {
		s.logger.Debug("stage done",
			zap.String("analysis_id", a.ID.String()),
			zap.String("stage", name),
			zap.String("status", string(a.Status)),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
	return nil
}

// validateStage accepts or rejects the primary video. A rejection is
// terminal and leaves no keyframes behind.
func (s *analysisService) validateStage(ctx context.Context, a *entities.Analysis) error {
	primary, ok := a.PrimaryVideo()
	if !ok {
		return fmt.Errorf("%w: analysis has no video angle", usecaseErrors.ErrInvalidInput)
	}

	result, err := s.validator.Validate(ctx, primary.URI, a.ShotType)
	if err != nil {
		return err
	}
	a.Validation = datatypes.NewJSONType(result)

	if !result.Accepted {
		if err := a.TransitionTo(entities.AnalysisStatusRejected, result.Reason); err != nil {
			return err
		}
		if s.logger != nil {
			s.logger.Info("🚫 Analysis rejected by content validation",
				zap.String("analysis_id", a.ID.String()),
				zap.String("reason", result.Reason),
				zap.Float64("confidence", result.Confidence),
			)
		}
		return s.analyses.SaveProgress(ctx, a)
	}

	if result.Source == ValidationSourceFallback {
		a.AddWarning("content validation skipped: " + result.Reason)
	}
	if err := a.TransitionTo(entities.AnalysisStatusValidated, fmt.Sprintf("content accepted (%s, confidence %.2f)", result.Source, result.Confidence)); err != nil {
		return err
	}
	return s.analyses.SaveProgress(ctx, a)
}

type angleOutcome struct {
	frames []Frame
	reused int
	err    error
}

// extractStage samples keyframes for every angle with a bounded pool.
// Angles that already have stored keyframes are reused as they are.
func (s *analysisService) extractStage(ctx context.Context, a *entities.Analysis) error {
	stored, err := s.keyframes.CountByAngle(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("failed to count keyframes: %w", err)
	}

	angles := append([]entities.VideoAngle(nil), a.Angles.Data()...)
	outcomes := make([]angleOutcome, len(angles))

	workers := s.cfg.AngleWorkers
	if workers <= 0 {
		workers = 4
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, angle := range angles {
		if n := stored[angle.Name]; n > 0 {
			outcomes[i].reused = n
			continue
		}
		i, angle := i, angle
		g.Go(func() error {
			frames, err := s.extractor.Extract(ctx, angle.URI, s.cfg.KeyframeCount)
			outcomes[i] = angleOutcome{frames: frames, err: err}
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for i := range angles {
		out := outcomes[i]
		angle := &angles[i]
		angle.Failed, angle.Error = false, ""

		if out.reused > 0 {
			angle.KeyframeCount = out.reused
			succeeded++
			continue
		}
		if out.err == nil {
			out.err = s.storeKeyframes(ctx, a, angle.Name, out.frames)
		}
		if out.err != nil {
			angle.Failed, angle.Error, angle.KeyframeCount = true, out.err.Error(), 0
			a.AddWarning(fmt.Sprintf("%v: %s: %v", usecaseErrors.ErrExtractionPartialFailure, angle.Name, out.err))
			if s.logger != nil {
				s.logger.Warn("⚠️ Angle extraction failed",
					zap.String("analysis_id", a.ID.String()),
					zap.String("angle", string(angle.Name)),
					zap.Error(out.err),
				)
			}
			continue
		}
		angle.KeyframeCount = len(out.frames)
		succeeded++
	}

	a.Angles = datatypes.NewJSONType(angles)
	if succeeded == 0 {
		if err := s.analyses.SaveProgress(ctx, a); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d angles attempted", usecaseErrors.ErrExtractionFailed, len(angles))
	}

	if err := a.TransitionTo(entities.AnalysisStatusExtracted, fmt.Sprintf("keyframes ready for %d of %d angles", succeeded, len(angles))); err != nil {
		return err
	}
	return s.analyses.SaveProgress(ctx, a)
}

func (s *analysisService) storeKeyframes(ctx context.Context, a *entities.Analysis, angle entities.AngleName, frames []Frame) error {
	rows := make([]*entities.Keyframe, 0, len(frames))
	for _, f := range frames {
		kf := entities.NewKeyframe(a.ID, angle, f.Index, f.Timestamp, f.MimeType, f.Image)
		kf.Description = f.Description
		rows = append(rows, kf)
	}
	if err := s.keyframes.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("store keyframes: %w", err)
	}
	return nil
}

// boundStage detects the motion window on the best available angle
func (s *analysisService) boundStage(ctx context.Context, a *entities.Analysis) error {
	angle, ok := boundaryAngle(a)
	if !ok {
		return fmt.Errorf("%w: no angle has enough keyframes for boundary detection", usecaseErrors.ErrExtractionFailed)
	}

	frames, err := s.keyframes.FindByAngle(ctx, a.ID, angle)
	if err != nil {
		return fmt.Errorf("failed to load keyframes: %w", err)
	}

	boundary, err := s.detector.Detect(ctx, angle, frames, a.ShotType)
	if err != nil {
		return err
	}
	a.Boundary = datatypes.NewJSONType(&boundary)
	if boundary.IsHeuristic() {
		a.AddWarning(fmt.Sprintf("motion boundary is heuristic (confidence %.2f)", boundary.Confidence))
	}

	if err := a.TransitionTo(entities.AnalysisStatusBounded, fmt.Sprintf("motion boundary %.3fs-%.3fs on %s", boundary.StartTimestamp, boundary.EndTimestamp, angle)); err != nil {
		return err
	}
	return s.analyses.SaveProgress(ctx, a)
}

// boundaryAngle prefers the primary angle, then the angle with the most
// keyframes
func boundaryAngle(a *entities.Analysis) (entities.AngleName, bool) {
	if primary, ok := a.Angle(a.PrimaryAngle); ok && !primary.Failed && primary.KeyframeCount >= MinBoundaryFrames {
		return primary.Name, true
	}
	var best entities.VideoAngle
	for _, angle := range a.Angles.Data() {
		if !angle.Failed && angle.KeyframeCount > best.KeyframeCount {
			best = angle
		}
	}
	return best.Name, best.KeyframeCount >= MinBoundaryFrames
}

// rateStage asks the model for the checklist. Without a credential the
// analysis stays at bounded until a manual checklist arrives.
func (s *analysisService) rateStage(ctx context.Context, a *entities.Analysis) (parked bool, err error) {
	boundary := a.Boundary.Data()
	if boundary == nil {
		return false, fmt.Errorf("%w: bounded analysis has no boundary", usecaseErrors.ErrInvalidTransition)
	}

	frames, err := s.keyframes.FindByAngle(ctx, a.ID, boundary.Angle)
	if err != nil {
		return false, fmt.Errorf("failed to load keyframes: %w", err)
	}

	rated, err := s.rater.Rate(ctx, frames, boundary, a.ShotType)
	if errors.Is(err, usecaseErrors.ErrAIUnavailable) {
		if a.StatusReason != AwaitingChecklistReason {
			a.StatusReason = AwaitingChecklistReason
			if err := s.analyses.SaveProgress(ctx, a); err != nil {
				return false, err
			}
		}
		if s.logger != nil {
			s.logger.Info("⏸️ Analysis awaiting manual checklist", zap.String("analysis_id", a.ID.String()))
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if err := a.AttachChecklist(rated.Categories, entities.ChecklistSourceAI); err != nil {
		return false, err
	}
	for _, w := range rated.Warnings {
		a.AddWarning(w)
	}
	return false, s.analyses.SaveProgress(ctx, a)
}

// scoreStage applies the current weight profile to the checklist
func (s *analysisService) scoreStage(ctx context.Context, a *entities.Analysis) error {
	profile, err := s.profiles.Get(ctx, a.ShotType)
	if err != nil {
		return fmt.Errorf("failed to load weight profile: %w", err)
	}

	result := scoring.Score(a.Checklist.Data(), profile)
	a.ApplyScore(result, profile.Ref())
	a.SetWarning(scoring.UnresolvableWarning, result.Unresolvable)

	if err := a.TransitionTo(entities.AnalysisStatusScored, scoring.StatusReason(result, profile.Ref())); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("🏀 Analysis scored",
			zap.String("analysis_id", a.ID.String()),
			zap.Float64("score", result.Score),
			zap.Bool("unresolvable", result.Unresolvable),
			zap.String("profile", profile.Ref()),
		)
	}
	return s.analyses.SaveProgress(ctx, a)
}

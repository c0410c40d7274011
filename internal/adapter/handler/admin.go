package handler

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/errors"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/dto/admin"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"
)

// Recomputer rescores stored checklists
type Recomputer interface {
	Run(ctx context.Context, req recompute.Request) (*recompute.Result, error)
}

// WeightProfiles reads and replaces weight profiles
type WeightProfiles interface {
	Get(ctx context.Context, shotType entities.ShotType) (*entities.WeightProfile, error)
	Put(ctx context.Context, shotType entities.ShotType, weights map[string]float64) (*entities.WeightProfile, error)
}

// Admin handles operator endpoints
type Admin struct {
	recomputer Recomputer
	profiles   WeightProfiles
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(recomputer Recomputer, profiles WeightProfiles, logger *zap.Logger) *Admin {
	return &Admin{
		recomputer: recomputer,
		profiles:   profiles,
		logger:     logger,
	}
}

// Recompute handles POST /admin/recompute
// @Summary      Recompute scores
// @Description  Rescores every stored checklist against the current weight profiles, page by page
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      admin.RecomputeRequest  false  "Shot type filter and resume cursor"
// @Success      200      {object}  admin.RecomputeResponse
// @Failure      409      {object}  common.ErrorResponse  "A recompute is already running"
// @Failure      500      {object}  common.ErrorResponse  "Aborted on a page write; data holds the committed progress"
// @Router       /admin/recompute [post]
func (h *Admin) Recompute(c echo.Context) error {
	var req admin.RecomputeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	var run recompute.Request
	if req.ShotType != nil {
		shotType, err := entities.ParseShotType(*req.ShotType)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		run.ShotType = &shotType
	}
	if req.StartAfter != nil {
		id, err := uuid.Parse(*req.StartAfter)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("start_after must be a valid UUID"))
		}
		run.StartAfter = &id
	}

	result, err := h.recomputer.Run(c.Request().Context(), run)
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrBatchPageWriteFailure) && result != nil {
			appErr := errors.ErrBatchPageWriteFailure(result.Pages+1, result.UpdatedCount, err)
			return HandleErrorWithData(h.logger, c, appErr, presenter.ToRecomputeResponse(result, err))
		}
		if stdErrors.Is(err, usecaseErrors.ErrRecomputeLockLost) && result != nil {
			return HandleErrorWithData(h.logger, c, errors.ErrRecomputeInProgress(), presenter.ToRecomputeResponse(result, err))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToRecomputeResponse(result, nil))
}

// GetWeights handles GET /admin/weights/:shot_type
// @Summary      Get a weight profile
// @Tags         Admin
// @Produce      json
// @Param        shot_type  path      string  true  "general, libre, media or tres"
// @Success      200        {object}  admin.WeightProfileResponse
// @Failure      400        {object}  common.ErrorResponse  "Unknown shot type"
// @Router       /admin/weights/{shot_type} [get]
func (h *Admin) GetWeights(c echo.Context) error {
	shotType, err := entities.ParseShotType(c.Param("shot_type"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	profile, err := h.profiles.Get(c.Request().Context(), shotType)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToWeightProfileResponse(profile))
}

// PutWeights handles PUT /admin/weights/:shot_type
// @Summary      Replace a weight profile
// @Description  Weights must be non-negative and sum to 100 ± 0.1. Existing scores change only after a recompute.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        shot_type  path      string  true  "general, libre, media or tres"
// @Param        request    body      admin.UpdateWeightsRequest  true  "Item weights"
// @Success      200        {object}  admin.WeightProfileResponse
// @Failure      400        {object}  common.ErrorResponse  "Invalid weight profile"
// @Router       /admin/weights/{shot_type} [put]
func (h *Admin) PutWeights(c echo.Context) error {
	shotType, err := entities.ParseShotType(c.Param("shot_type"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req admin.UpdateWeightsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	profile, err := h.profiles.Put(c.Request().Context(), shotType, req.Weights)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToWeightProfileResponse(profile))
}

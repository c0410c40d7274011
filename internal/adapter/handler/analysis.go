package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/errors"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/dto/analysis"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	analysisUsecase "github.com/johnquangdev/shot-analyzer/internal/usecase/analysis"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

// Analysis handles shot analysis HTTP requests
type Analysis struct {
	service analysisUsecase.Service
	logger  *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service analysisUsecase.Service, logger *zap.Logger) *Analysis {
	return &Analysis{
		service: service,
		logger:  logger,
	}
}

// Submit handles POST /analyses
// @Summary      Submit a shot for analysis
// @Description  Stores a pending analysis for one to four angle videos and queues it
// @Tags         Analyses
// @Accept       json
// @Produce      json
// @Param        request  body      analysis.SubmitAnalysisRequest  true  "Videos by angle"
// @Success      202      {object}  analysis.AnalysisResponse  "Analysis queued"
// @Failure      400      {object}  common.ErrorResponse  "Invalid request"
// @Router       /analyses [post]
func (h *Analysis) Submit(c echo.Context) error {
	var req analysis.SubmitAnalysisRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	input := analysisUsecase.SubmitInput{
		ShotLabel:    req.ShotLabel,
		PrimaryAngle: entities.AngleName(req.PrimaryAngle),
		Videos:       make(map[entities.AngleName]string, len(req.Videos)),
	}
	if req.ShotType != "" {
		shotType, err := entities.ParseShotType(req.ShotType)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		input.ShotType = shotType
	}
	for name, uri := range req.Videos {
		input.Videos[entities.AngleName(name)] = uri
	}

	a, err := h.service.Submit(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleStatus(h.logger, c, http.StatusAccepted, presenter.ToAnalysisResponse(a))
}

// Get handles GET /analyses/:id
// @Summary      Get an analysis
// @Description  Returns the current stage, partial results and warnings of an analysis
// @Tags         Analyses
// @Produce      json
// @Param        id   path      string  true  "Analysis ID (UUID)"
// @Success      200  {object}  analysis.AnalysisResponse
// @Failure      404  {object}  common.ErrorResponse  "Analysis not found"
// @Router       /analyses/{id} [get]
func (h *Analysis) Get(c echo.Context) error {
	id, err := parseAnalysisID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	a, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return h.handleAnalysisError(c, id, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToAnalysisResponse(a))
}

// Reanalyze handles POST /analyses/:id/reanalyze
// @Summary      Reanalyze
// @Description  Restarts an analysis from validated, or from pending when it was rejected. Stored keyframes are reused.
// @Tags         Analyses
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Analysis ID (UUID)"
// @Param        request  body      analysis.ReanalyzeRequest  false  "Reason"
// @Success      202      {object}  analysis.AnalysisResponse
// @Failure      409      {object}  common.ErrorResponse  "Analysis cannot be reanalyzed now"
// @Router       /analyses/{id}/reanalyze [post]
func (h *Analysis) Reanalyze(c echo.Context) error {
	id, err := parseAnalysisID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req analysis.ReanalyzeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	a, err := h.service.Reanalyze(c.Request().Context(), id, req.Reason)
	if err != nil {
		return h.handleAnalysisError(c, id, err)
	}

	return HandleStatus(h.logger, c, http.StatusAccepted, presenter.ToAnalysisResponse(a))
}

// Cancel handles POST /analyses/:id/cancel
// @Summary      Cancel a run
// @Description  Abandons a running analysis at its next stage boundary
// @Tags         Analyses
// @Produce      json
// @Param        id   path      string  true  "Analysis ID (UUID)"
// @Success      202  {object}  common.SuccessResponse
// @Failure      409  {object}  common.ErrorResponse  "Analysis is not running"
// @Router       /analyses/{id}/cancel [post]
func (h *Analysis) Cancel(c echo.Context) error {
	id, err := parseAnalysisID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.Cancel(c.Request().Context(), id); err != nil {
		return h.handleAnalysisError(c, id, err)
	}

	return HandleStatus(h.logger, c, http.StatusAccepted, map[string]string{
		"id":     id.String(),
		"status": "cancellation_requested",
	})
}

// SubmitChecklist handles PUT /analyses/:id/checklist
// @Summary      Submit a manual checklist
// @Description  Attaches a coach-rated checklist and rescores the analysis
// @Tags         Analyses
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Analysis ID (UUID)"
// @Param        request  body      analysis.SubmitChecklistRequest  true  "Rated checklist"
// @Success      200      {object}  analysis.AnalysisResponse
// @Failure      400      {object}  common.ErrorResponse  "Invalid checklist"
// @Failure      409      {object}  common.ErrorResponse  "Analysis not bounded yet"
// @Router       /analyses/{id}/checklist [put]
func (h *Analysis) SubmitChecklist(c echo.Context) error {
	id, err := parseAnalysisID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req analysis.SubmitChecklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	categories, err := req.ToCategories()
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	a, err := h.service.SubmitChecklist(c.Request().Context(), id, categories)
	if err != nil {
		return h.handleAnalysisError(c, id, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToAnalysisResponse(a))
}

// handleAnalysisError attaches the analysis id to not-found and state errors
func (h *Analysis) handleAnalysisError(c echo.Context, id uuid.UUID, err error) error {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrNotFound):
		appErr := errors.ErrAnalysisNotFound(id.String())
		appErr.Raw = err
		return HandleError(h.logger, c, appErr)
	case stdErrors.Is(err, entities.ErrInvalidTransition),
		stdErrors.Is(err, usecaseErrors.ErrInvalidTransition):
		return HandleError(h.logger, c, errors.ErrAnalysisInvalidState(id.String(), err))
	}
	return HandleError(h.logger, c, err)
}

func parseAnalysisID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("analysis ID must be a valid UUID")
	}
	return id, nil
}

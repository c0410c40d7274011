package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/errors"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/dto/common"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// toAppError maps domain and usecase sentinels to API errors
func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrNotFound):
		appErr = errors.ErrNotFound("Resource")
	case stdErrors.Is(err, entities.ErrInvalidChecklist),
		stdErrors.Is(err, entities.ErrInvalidRating):
		appErr = errors.ErrInvalidChecklist(err)
	case stdErrors.Is(err, entities.ErrInvalidWeightProfile):
		appErr = errors.ErrInvalidWeightProfile(err)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput),
		stdErrors.Is(err, entities.ErrInvalidShotType),
		stdErrors.Is(err, entities.ErrInvalidAngle):
		appErr = errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, entities.ErrInvalidTransition),
		stdErrors.Is(err, usecaseErrors.ErrInvalidTransition):
		appErr = errors.ErrAnalysisInvalidState("", err)
	case stdErrors.Is(err, usecaseErrors.ErrRecomputeInProgress),
		stdErrors.Is(err, usecaseErrors.ErrRecomputeLockLost):
		appErr = errors.ErrRecomputeInProgress()
	case stdErrors.Is(err, usecaseErrors.ErrConflict),
		stdErrors.Is(err, usecaseErrors.ErrAlreadyClaimed):
		appErr = errors.ErrConflict(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrAIResponseInvalid):
		appErr = errors.ErrAIResponseInvalid("pipeline", err)
	case stdErrors.Is(err, usecaseErrors.ErrAIUnavailable):
		appErr = errors.ErrAIUnavailable("gemini")
	default:
		return errors.ErrInternal(err)
	}
	if appErr.Raw == nil {
		appErr.Raw = err
	}
	return appErr
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleStatus(logger, c, http.StatusOK, data)
}

// HandleStatus writes a standardized success response with an explicit status
func HandleStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := common.SuccessResponse{
		Code:    errors.ErrorCode_HTTP_OK,
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	return HandleErrorWithData(logger, c, err, nil)
}

// HandleErrorWithData writes an error response that also carries a partial result
func HandleErrorWithData(logger *zap.Logger, c echo.Context, err error, data interface{}) error {
	appErr := toAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := common.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
		Data:    data,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// bindAndValidate decodes and validates a request body
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload().WithDetail("bind", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	return nil
}

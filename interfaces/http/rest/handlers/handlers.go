// Package handlers contains the HTTP handlers for the REST API
package handlers

import (
	"net/http"

	"scholarmap-backend/pkg/common"
	pkgerrors "scholarmap-backend/pkg/errors"

	"go.uber.org/zap"
)

// respondServiceError maps a service-layer error onto an HTTP response.
// Unclassified errors are logged and hidden behind a generic 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		logger.Error("Unhandled error", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, string(pkgerrors.ErrorTypeInternal), "internal server error")
		return
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
}

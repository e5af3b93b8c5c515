package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/edgeflag/edgeflag/internal/api"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"

	"github.com/go-chi/chi/v5"
)

// extractErrorInfo extracts statusCode, errorCode, and errorDetails from an error.
func extractErrorInfo(err error) (statusCode int, errorCode, errorDetails string) {
	return apperrors.GetStatusCode(err),
		apperrors.GetErrorCode(err),
		apperrors.GetErrorMessage(err)
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Code:    errorCode,
		Details: details,
	})
}

// decodeRequestBody decodes the JSON request body into v, writing a bad
// request response on failure.
func decodeRequestBody(w http.ResponseWriter, req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err.Error())
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// getRequiredURLParam extracts and validates a required URL parameter.
// If the parameter is missing or empty, writes a bad request error response
// and returns "", false.
func getRequiredURLParam(w http.ResponseWriter, req *http.Request, name string) (string, bool) {
	param := strings.TrimSpace(chi.URLParam(req, name))
	if param == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid "+name, name+" is required")
		return "", false
	}
	return param, true
}

// handleAndLogError logs an error and writes a standardized error response.
// Use this for all service call failures in handlers.
func (r *Router) handleAndLogError(
	w http.ResponseWriter,
	req *http.Request,
	err error,
	operationName string,
) {
	logger := r.GetLoggerFromContext(req.Context())
	statusCode, errorCode, errorDetails := extractErrorInfo(err)

	logger.Error("operation failed",
		"operation", operationName,
		"error", err,
		"status_code", statusCode,
		"error_code", errorCode,
	)

	writeErrorResponseWithCode(w, statusCode, errorCode, "failed to "+operationName, errorDetails)
}

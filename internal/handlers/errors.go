package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/pipeline"
	"equityscope/backend-go/internal/services"
)

// writeStageError converts a pipeline failure to the wire shape. Only the
// stage-tagged message is exposed.
func writeStageError(w http.ResponseWriter, err error, logger arbor.ILogger) {
	se, ok := pipeline.AsStageError(err)
	if !ok {
		logger.Error().Err(err).Msg("Untagged analysis failure")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "internal"})
		return
	}

	var upErr *services.UpstreamError
	if errors.As(err, &upErr) && upErr.Status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}

	writeJSON(w, statusFor(se.Kind), models.ErrorResponse{Error: se.Error()})
}

func statusFor(kind pipeline.ErrorKind) int {
	if kind == pipeline.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

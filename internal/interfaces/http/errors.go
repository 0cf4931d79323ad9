package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// errorStatus maps a service error to an HTTP status and a message safe to
// show the client
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrUnauthenticated):
		return http.StatusUnauthorized, "sign in required"
	case errors.Is(err, entity.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "no credits left, top up to continue"
	case errors.Is(err, entity.ErrEmptyInput):
		return http.StatusBadRequest, "please describe the job first"
	case errors.Is(err, entity.ErrEmptyAudio):
		return http.StatusBadRequest, "no audio received"
	case errors.Is(err, entity.ErrAudioTooLarge):
		return http.StatusRequestEntityTooLarge, "recording is too large"
	case errors.Is(err, entity.ErrGenerationNotFound):
		return http.StatusNotFound, "invoice not found"
	case errors.Is(err, entity.ErrExtractionFailed),
		errors.Is(err, entity.ErrMalformedResponse),
		errors.Is(err, entity.ErrTranscriptionFailed):
		return http.StatusBadGateway, "the AI service could not process the request, please try again"
	case errors.Is(err, entity.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid signature"
	case errors.Is(err, entity.ErrIdentityFailed):
		return http.StatusUnauthorized, "sign in failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   msg,
	})
}

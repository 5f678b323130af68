package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// BuildResponse maps the terminal state of an invocation to a Response.
// A nil err yields 200 with successMessage. The body is always a JSON string.
func BuildResponse(err error, successMessage string) domain.Response {
	if err == nil {
		return respond(http.StatusOK, successMessage)
	}

	kind := domain.KindOf(err)
	cause := err
	var de *domain.Error
	if errors.As(err, &de) && de.Err != nil {
		cause = de.Err
	}

	if kind == domain.KindInvalidEvent {
		return respond(kind.StatusCode(), "Invalid S3 event: "+cause.Error())
	}
	return respond(kind.StatusCode(), "Error processing file ("+string(kind)+"): "+cause.Error())
}

func respond(status int, message string) domain.Response {
	body, err := json.Marshal(message)
	if err != nil {
		// Strings always marshal; keep the contract anyway.
		body = []byte(`"internal error"`)
	}
	return domain.Response{StatusCode: status, Body: string(body)}
}

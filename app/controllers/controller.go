// Package controllers adapts HTTP requests to the services and shapes their
// results into the JSON envelope.
package controllers

import (
	"net/http"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/response"
)

// principal reads the caller from the verified token. It writes a 401 and
// returns false when the token does not name a valid user and role.
func principal(cx *ctx.Context) (policies.Principal, bool) {
	claims, ok := cx.Claims()
	if !ok {
		cx.ErrorWithCause(http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return policies.Principal{}, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	role, valid := models.ParseRole(claims.Role)
	if err != nil || !valid {
		cx.ErrorWithCause(http.StatusUnauthorized, "Unauthorized", "token does not name a user")
		return policies.Principal{}, false
	}
	return policies.Principal{UserID: id, Role: role}, true
}

// objectID parses a path parameter. It writes a 400 and returns false when
// the value is not an ObjectID.
func objectID(cx *ctx.Context, param string) (primitive.ObjectID, bool) {
	raw := cx.Param(param)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		cx.ErrorWithCause(http.StatusBadRequest, "Invalid id", "malformed "+param+" "+raw)
		return primitive.NilObjectID, false
	}
	return id, true
}

func statusFor(k services.Kind) int {
	switch k {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as an envelope with its stable message and cause. A
// partially applied workflow also lists the writes that were committed.
func fail(cx *ctx.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		se = services.ErrInternal.With(err)
	}
	status := statusFor(se.Kind)
	body := response.Envelope{Message: se.Message, Error: se.Cause()}

	var partial *services.PartialWriteError
	if errors.As(err, &partial) {
		body.Errors = map[string]interface{}{
			"operation": partial.Operation,
			"committed": partial.Committed,
		}
	}

	log := logger.WithCtx(cx.Context())
	if status >= http.StatusInternalServerError || partial != nil {
		log.Error("request failed", "code", se.Code, "error", err)
	} else {
		log.Debug("request rejected", "code", se.Code, "error", err)
	}
	cx.Respond(status, body)
}

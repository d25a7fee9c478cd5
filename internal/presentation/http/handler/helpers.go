package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/presentation/http/dto/response"
	"github.com/sangkips/billing-api/pkg/apperror"
)

// parseID reads the :id path parameter. It writes a 400 and returns false
// when the value is not a uuid.
func parseID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into obj. Malformed JSON is a 400; a
// value outside an enum's closed set is a 422 like any other validation
// failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var ve *enum.ValueError
	if errors.As(err, &ve) {
		response.Error(c, apperror.NewFieldError(ve.Name, ve.Error()))
		return false
	}
	response.BadRequest(c, "Invalid request body")
	return false
}

// enumParam converts an optional query value to its enum type. ok is
// false when a 422 was written.
func enumParam[T interface {
	~string
	IsValid() bool
}](c *gin.Context, name, raw string) (*T, bool) {
	if raw == "" {
		return nil, true
	}
	v := T(raw)
	if !v.IsValid() {
		response.Error(c, apperror.NewFieldError(name, "invalid value "+raw))
		return nil, false
	}
	return &v, true
}

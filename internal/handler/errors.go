package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/antontit/buffet/internal/apierror"
	"github.com/antontit/buffet/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps the domain taxonomy onto HTTP. The three conflict kinds
// share 409 and are told apart by code.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(apierror.CodeNotFound, err.Error()))
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeValidation, flatten(err)))
	case errors.Is(err, domain.ErrCollision):
		c.JSON(http.StatusConflict, apierror.New(apierror.CodeCollision, "Collision detected"))
	case errors.Is(err, domain.ErrNoSpace):
		c.JSON(http.StatusConflict, apierror.New(apierror.CodeNoSpace, "No space available"))
	case errors.Is(err, domain.ErrCapacity):
		c.JSON(http.StatusConflict, apierror.New(apierror.CodeStackFull, err.Error()))
	default:
		// Logged by middleware.ErrorHandler; the client only sees the envelope.
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.Internal())
	}
}

// flatten renders a joined error on one line.
func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}

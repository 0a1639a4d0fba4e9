// Package handlers implements the gin HTTP handlers of the API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphaura/graphaura/pkg/server/dto"
	"github.com/graphaura/graphaura/pkg/types"
)

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var ve *types.ValidationError
	var de *types.DimensionError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ve), errors.As(err, &de):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, types.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}

	c.JSON(status, dto.Result{Success: false, Error: err.Error()})
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: data})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: err.Error()})
}

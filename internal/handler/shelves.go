package handler

import (
	"net/http"

	"github.com/antontit/buffet/internal/service"

	"github.com/gin-gonic/gin"
)

type ShelvesHandler struct{ layout service.LayoutService }

func NewShelvesHandler(layout service.LayoutService) *ShelvesHandler {
	return &ShelvesHandler{layout: layout}
}

// Get godoc
// @Summary      Shelf layout
// @Description  Shelf geometry with its stacks, item count and utilization.
// @Tags         shelves
// @Produce      json
// @Param        id   path     string true "Shelf UUID"
// @Success      200  {object} dto.ShelfLayoutResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/shelves/{id} [get]
func (h *ShelvesHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.layout.ShelfLayout(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List GET /v1/shelves
func (h *ShelvesHandler) List(c *gin.Context) {
	resp, err := h.layout.BuffetLayout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

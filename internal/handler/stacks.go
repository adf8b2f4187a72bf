package handler

import (
	"net/http"

	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/service"

	"github.com/gin-gonic/gin"
)

type StacksHandler struct {
	placement service.PlacementService
	stacks    service.StackService
}

func NewStacksHandler(placement service.PlacementService, stacks service.StackService) *StacksHandler {
	return &StacksHandler{placement: placement, stacks: stacks}
}

// Place godoc
// @Summary      Place a dish on a shelf
// @Description  Adds to the newest stack of the dish that has room, otherwise writes a new stack at x (clamped) or at the first free spot.
// @Tags         stacks
// @Accept       json
// @Produce      json
// @Param        id   path     string                 true "Shelf UUID"
// @Param        body body     dto.PlaceStackRequest  true "Dish and optional x"
// @Success      201  {object} dto.StackResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/shelves/{id}/stacks [post]
func (h *StacksHandler) Place(c *gin.Context) {
	shelfID, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.PlaceStackRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.placement.PlaceOnShelf(c.Request.Context(), shelfID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PlaceStacked godoc
// @Summary      Stack a dish onto an existing stack
// @Tags         stacks
// @Accept       json
// @Produce      json
// @Param        id   path     string                   true "Shelf UUID"
// @Param        body body     dto.PlaceStackedRequest  true "Dish and target stack"
// @Success      200  {object} dto.StackResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/shelves/{id}/stacks/stacked [post]
func (h *StacksHandler) PlaceStacked(c *gin.Context) {
	shelfID, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.PlaceStackedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.placement.PlaceStacked(c.Request.Context(), shelfID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Merge godoc
// @Summary      Merge two stacks
// @Description  Moves as many items as fit from source into target; an emptied source is deleted.
// @Tags         stacks
// @Accept       json
// @Produce      json
// @Param        body body     dto.MergeStacksRequest true "Source and target"
// @Success      200  {object} dto.MergeStacksResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stacks/merge [post]
func (h *StacksHandler) Merge(c *gin.Context) {
	var req dto.MergeStacksRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.stacks.Merge(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Unstack POST /v1/stacks/:id/unstack
func (h *StacksHandler) Unstack(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.stacks.UnstackOne(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Move godoc
// @Summary      Move a stack
// @Description  Reassigns shelf and coordinates. An overlapping target is a 409, never retried.
// @Tags         stacks
// @Accept       json
// @Produce      json
// @Param        id   path     string               true "Stack UUID"
// @Param        body body     dto.MoveStackRequest true "Destination"
// @Success      200  {object} dto.MoveStackResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/stacks/{id} [patch]
func (h *StacksHandler) Move(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.MoveStackRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.placement.MoveStack(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /v1/stacks/:id answers 204 whether or not the stack existed.
func (h *StacksHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.placement.DeleteStack(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

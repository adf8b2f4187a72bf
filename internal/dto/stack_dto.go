package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PlaceStackRequest places a dish on the shelf named in the route. Without X
// the free-spot scan picks the position; X is clamped to the shelf.
type PlaceStackRequest struct {
	DishID string `json:"dish_id" validate:"required,uuid"`
	X      *int   `json:"x"`
}

type PlaceStackedRequest struct {
	DishID        string `json:"dish_id"         validate:"required,uuid"`
	TargetStackID string `json:"target_stack_id" validate:"required,uuid"`
}

type MergeStacksRequest struct {
	SourceStackID string `json:"source_stack_id" validate:"required,uuid"`
	TargetStackID string `json:"target_stack_id" validate:"required,uuid"`
}

type MoveStackRequest struct {
	ShelfID string `json:"shelf_id" validate:"required,uuid"`
	X       *int   `json:"x"        validate:"required"`
	Y       *int   `json:"y"        validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StackResponse struct {
	ID      string `json:"id"`
	ShelfID string `json:"shelf_id"`
	DishID  string `json:"dish_id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Count   int    `json:"count"`
}

type MoveStackResponse struct {
	ID      string `json:"id"`
	ShelfID string `json:"shelf_id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// MergeStacksResponse reports both sides of a merge. SourceID is nil when the
// source stack was emptied and deleted.
type MergeStacksResponse struct {
	TargetID             string  `json:"target_id"`
	TargetCount          int     `json:"target_count"`
	SourceID             *string `json:"source_id"`
	SourceRemainingCount int     `json:"source_remaining_count"`
	MovedCount           int     `json:"moved_count"`
}

type UnstackResponse struct {
	StackID        string `json:"stack_id"`
	RemainingCount int    `json:"remaining_count"`
	Deleted        bool   `json:"deleted"`
}

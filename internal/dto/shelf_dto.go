package dto

import "github.com/shopspring/decimal"

type DishResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Image      string `json:"image"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	StackLimit int    `json:"stack_limit"`
}

type ShelfResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
}

type PlacedStackResponse struct {
	StackResponse
	Dish *DishResponse `json:"dish"`
}

// ShelfLayoutResponse is the cached read model of one shelf.
// UtilizationPct is occupied footprint area over shelf area, in percent.
type ShelfLayoutResponse struct {
	Shelf          ShelfResponse         `json:"shelf"`
	Stacks         []PlacedStackResponse `json:"stacks"`
	ItemCount      int                   `json:"item_count"`
	UtilizationPct decimal.Decimal       `json:"utilization_pct"`
}

type BuffetLayoutResponse struct {
	Shelves []ShelfLayoutResponse `json:"shelves"`
}

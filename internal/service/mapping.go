package service

import (
	"github.com/antontit/buffet/internal/dto"
	"github.com/antontit/buffet/internal/model"
)

func stackToResponse(s *model.Stack) *dto.StackResponse {
	return &dto.StackResponse{
		ID:      s.ID.String(),
		ShelfID: s.ShelfID.String(),
		DishID:  s.DishID.String(),
		X:       s.X,
		Y:       s.Y,
		Width:   s.Width,
		Height:  s.Height,
		Count:   s.Count,
	}
}

func dishToResponse(d *model.Dish) *dto.DishResponse {
	if d == nil {
		return nil
	}
	return &dto.DishResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		Type:       d.Type,
		Image:      d.Image,
		Width:      d.Width,
		Height:     d.Height,
		StackLimit: d.StackLimit,
	}
}

func shelfToResponse(s *model.Shelf) dto.ShelfResponse {
	return dto.ShelfResponse{
		ID:     s.ID.String(),
		Name:   s.Name,
		Width:  s.Width,
		Height: s.Height,
		X:      s.X,
		Y:      s.Y,
	}
}

package listleads

import "franchise-leads/internal/models"

type Input struct {
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

type Output struct {
	Items      []models.Lead `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

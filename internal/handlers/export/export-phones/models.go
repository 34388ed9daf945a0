package exportphones

import "context"

type Input struct{}

type Output struct {
	Phones []string `json:"phones"`
	// Partial is set when at least one collection could not be read.
	Partial bool `json:"-"`
	Cached  bool `json:"-"`
}

// DocumentSource reads the raw documents of a named collection.
type DocumentSource interface {
	Documents(ctx context.Context, collection string) ([]map[string]interface{}, error)
}

// phoneFields are checked in order; the first non-empty one is used.
var phoneFields = []string{"phone", "phoneNumber"}

package service

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for new products
type IDGenerator interface {
	Generate() (string, error)
}

// RandomIDGenerator encodes a random (v4) UUID as unpadded URL-safe base64,
// giving a 22 character, non-sequential identifier.
type RandomIDGenerator struct{}

// NewRandomIDGenerator creates a new instance of RandomIDGenerator
func NewRandomIDGenerator() RandomIDGenerator {
	return RandomIDGenerator{}
}

func (RandomIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(id[:]), nil
}

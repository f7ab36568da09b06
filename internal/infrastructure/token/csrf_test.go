package token

import (
	"errors"
	"testing"

	"wework-hub/internal/domain"

	"github.com/stretchr/testify/assert"
)

const testCSRFSecret = "this-is-a-valid-csrf-secret-that-is-at-least-32-chars"

func TestHMACCSRFGenerator_Generate(t *testing.T) {
	gen := NewHMACCSRFGenerator(testCSRFSecret)

	token, err := gen.Generate("visitor-123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestHMACCSRFGenerator_Deterministic(t *testing.T) {
	gen := NewHMACCSRFGenerator(testCSRFSecret)

	token1, _ := gen.Generate("visitor-123")
	token2, _ := gen.Generate("visitor-123")
	assert.Equal(t, token1, token2)
}

func TestHMACCSRFGenerator_DifferentVisitors(t *testing.T) {
	gen := NewHMACCSRFGenerator(testCSRFSecret)

	token1, _ := gen.Generate("visitor-1")
	token2, _ := gen.Generate("visitor-2")
	assert.NotEqual(t, token1, token2)
}

func TestHMACCSRFGenerator_EmptySecret(t *testing.T) {
	gen := NewHMACCSRFGenerator("")

	token, err := gen.Generate("visitor-123")
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, domain.ErrCSRFSecretMissing))
}

func TestHMACCSRFGenerator_Verify(t *testing.T) {
	gen := NewHMACCSRFGenerator(testCSRFSecret)
	token, _ := gen.Generate("visitor-1")

	assert.NoError(t, gen.Verify("visitor-1", token))
	assert.ErrorIs(t, gen.Verify("visitor-2", token), domain.ErrCSRFMismatch)
	assert.ErrorIs(t, gen.Verify("visitor-1", ""), domain.ErrCSRFMismatch)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3creto")
	require.NoError(t, err)
	assert.NotEqual(t, "s3creto", hashed)

	assert.NoError(t, CheckPassword(hashed, "s3creto"))
	assert.Error(t, CheckPassword(hashed, "otra"))
}

package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("s3cret-phrase")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-phrase", hash)

	assert.NoError(t, CompareHash(hash, "s3cret-phrase"))
	assert.Error(t, CompareHash(hash, "wrong-phrase"))
}

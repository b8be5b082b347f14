package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("storage unavailable"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "storage unavailable", attr.Value.String())
}

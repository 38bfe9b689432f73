package apperr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsMatch(t *testing.T) {
	err := DataLoad("read dataset", fs.ErrNotExist)

	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrStorage))
	assert.Equal(t, ErrDataLoad, KindOf(err))
	assert.Contains(t, err.Error(), "read dataset")
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Nil(t, KindOf(errors.New("boom")))
	assert.Nil(t, KindOf(nil))
}

func TestNewWithoutCause(t *testing.T) {
	err := Storage("open index", nil)
	assert.Equal(t, "open index: storage error", err.Error())
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestErrorsAs(t *testing.T) {
	wrapped := Generation("generate", errors.New("model unavailable"))
	var target *Error
	if assert.True(t, errors.As(wrapped, &target)) {
		assert.Equal(t, "generate", target.Op)
		assert.Equal(t, ErrGeneration, target.Kind)
	}
}

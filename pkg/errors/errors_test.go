package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeJobNotFound, http.StatusNotFound},
		{CodeEmptyGeometry, http.StatusUnprocessableEntity},
		{CodeUnloadableMesh, http.StatusUnprocessableEntity},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeStorageError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus)
		})
	}
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	derived := ErrInvalidParam.WithDetail("steps must be in [10, 50]")

	assert.Equal(t, "", ErrInvalidParam.Detail)
	assert.Equal(t, "steps must be in [10, 50]", derived.Detail)
	assert.Contains(t, derived.Error(), "steps must be in [10, 50]")
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("job abc: %w", ErrEmptyGeometry.WithDetail("0 faces"))

	assert.True(t, stderrors.Is(err, ErrEmptyGeometry))
	assert.False(t, stderrors.Is(err, ErrUnloadableMesh))
	assert.True(t, IsAppError(err))

	appErr := AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, CodeEmptyGeometry, appErr.Code)
}

func TestAsAppErrorWrapsPlainErrors(t *testing.T) {
	plain := stderrors.New("boom")
	appErr := AsAppError(plain)

	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.ErrorIs(t, appErr, plain)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestInvalidParamFormats(t *testing.T) {
	err := InvalidParam("seed %d out of range", -1)
	assert.Equal(t, CodeInvalidParam, err.Code)
	assert.Equal(t, "seed -1 out of range", err.Detail)
}

func TestDescribe(t *testing.T) {
	err := ErrUnloadableMesh.WithDetail("lod1").WithError(stderrors.New("face count mismatch"))
	assert.Equal(t, "mesh failed export/import round trip: lod1: face count mismatch", Describe(err))
	assert.Equal(t, "boom", Describe(stderrors.New("boom")))
}

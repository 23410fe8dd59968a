package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportError_Error(t *testing.T) {
	base := errors.New("boom")

	withCause := NewExportError(ErrCodeCapture, "screenshot failed", base)
	assert.Equal(t, "CAPTURE_FAILED: screenshot failed: boom", withCause.Error())
	assert.ErrorIs(t, withCause, base)

	bare := NewExportError(ErrCodeNavigation, "next page control not found", nil)
	assert.Equal(t, "NAVIGATION_FAILED: next page control not found", bare.Error())
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("run: %w", NewExportError(ErrCodeArtifactNotFound, "missing", nil))

	assert.True(t, HasCode(err, ErrCodeArtifactNotFound))
	assert.False(t, HasCode(err, ErrCodeNavigation))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeInternal))
	assert.False(t, HasCode(nil, ErrCodeInternal))
}

func TestDetailOf(t *testing.T) {
	assert.Nil(t, DetailOf(nil))

	d := DetailOf(NewExportError(ErrCodeNotLoggedIn, "please login", nil))
	assert.Equal(t, &ErrorDetail{Code: ErrCodeNotLoggedIn, Message: "please login"}, d)

	d = DetailOf(errors.New("unexpected"))
	assert.Equal(t, ErrCodeInternal, d.Code)
	assert.Equal(t, "unexpected", d.Message)
}

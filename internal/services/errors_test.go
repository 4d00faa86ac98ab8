package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrValidation("bad").StatusCode)
	// Disallowed transitions are 400-class rejections, not 422.
	assert.Equal(t, http.StatusBadRequest, ErrInvalidState("already confirmed").StatusCode)
	assert.Equal(t, http.StatusForbidden, ErrAuthorization("nope").StatusCode)
	assert.Equal(t, http.StatusNotFound, ErrNotFound("project").StatusCode)
	assert.Equal(t, http.StatusConflict, ErrDuplicate("invoice number taken").StatusCode)
	assert.Equal(t, http.StatusInternalServerError, ErrInternal(assert.AnError).StatusCode)
}

func TestAsServiceErrorNormalizes(t *testing.T) {
	svcErr := AsServiceError(ErrInvalidState("already confirmed"))
	assert.Equal(t, CodeInvalidState, svcErr.Code)

	svcErr = AsServiceError(gorm.ErrRecordNotFound)
	assert.Equal(t, CodeNotFound, svcErr.Code)

	svcErr = AsServiceError(assert.AnError)
	assert.Equal(t, CodeInternal, svcErr.Code)
}

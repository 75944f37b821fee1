package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"royalbid/internal/models"
)

func TestNewPagination_Pages(t *testing.T) {
	assert.Equal(t, 3, models.NewPagination(1, 12, 25).Pages)
	assert.Equal(t, 2, models.NewPagination(1, 12, 24).Pages)
	assert.Equal(t, 0, models.NewPagination(1, 12, 0).Pages)
}

func TestPagination_Offset(t *testing.T) {
	assert.Equal(t, 0, models.NewPagination(1, 12, 0).Offset())
	assert.Equal(t, 24, models.NewPagination(3, 12, 0).Offset())
	assert.Equal(t, 0, models.NewPagination(0, 12, 0).Offset())

	for _, page := range []int{math.MaxInt/12 + 2, math.MaxInt} {
		offset := models.NewPagination(page, 12, 0).Offset()
		assert.Equal(t, math.MaxInt-12, offset, "page %d", page)
		assert.Greater(t, offset+12, 0)
	}
}

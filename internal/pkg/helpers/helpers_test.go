package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPaginationInfo(37, 2, 10)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=3&size=abc", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 4, 0, 0, time.UTC)
	days := LastNDays(now, 7)
	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), days[6])
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", got)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

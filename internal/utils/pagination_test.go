package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func paramsFor(t *testing.T, query string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/tasks?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		page  int
		limit int
	}{
		{"defaults", "", 1, 10},
		{"explicit", "page=3&limit=25", 3, 25},
		{"zero page", "page=0", 1, 10},
		{"negative page", "page=-2", 1, 10},
		{"zero limit", "limit=0", 1, 10},
		{"limit above cap", "limit=500", 1, 10},
		{"limit at cap", "limit=100", 1, 100},
		{"non-numeric", "page=abc&limit=xyz", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := paramsFor(t, tt.query)
			require.Equal(t, tt.page, params.Page)
			require.Equal(t, tt.limit, params.Limit)
		})
	}
}

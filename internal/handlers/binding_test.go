package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	return c, rec
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		wantPage    int
		wantPerPage int
		wantSearch  string
		wantFilters map[string]string
	}{
		{
			name:        "defaults",
			target:      "/fees",
			wantPage:    1,
			wantPerPage: 20,
			wantFilters: map[string]string{},
		},
		{
			name:        "explicit paging and search",
			target:      "/fees?page=3&per_page=50&search=sharma",
			wantPage:    3,
			wantPerPage: 50,
			wantSearch:  "sharma",
			wantFilters: map[string]string{},
		},
		{
			name:        "named filters only",
			target:      "/fees?status=partial&batch_id=4&unrelated=x",
			wantPage:    1,
			wantPerPage: 20,
			wantFilters: map[string]string{"status": "partial", "batch_id": "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testContext(t, tt.target)
			query := parseListQuery(c, "status", "batch_id")
			assert.Equal(t, tt.wantPage, query.Page)
			assert.Equal(t, tt.wantPerPage, query.PerPage)
			assert.Equal(t, tt.wantSearch, query.Search)
			assert.Equal(t, tt.wantFilters, query.Filters)
		})
	}
}

func TestUintParam(t *testing.T) {
	c, _ := testContext(t, "/fees/101")
	c.Params = gin.Params{{Key: "roll_no", Value: "101"}}
	got, ok := uintParam(c, "roll_no")
	assert.True(t, ok)
	assert.Equal(t, uint(101), got)

	c, rec := testContext(t, "/fees/abc")
	c.Params = gin.Params{{Key: "roll_no", Value: "abc"}}
	_, ok = uintParam(c, "roll_no")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrDuplicate, http.StatusConflict},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrUnauthorized, http.StatusForbidden},
		{services.ErrInvalidPassword, http.StatusUnauthorized},
		{services.ErrOverpayment, http.StatusUnprocessableEntity},
		{services.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{services.ErrInvalidDiscount, http.StatusUnprocessableEntity},
		{services.ErrInvalidMode, http.StatusUnprocessableEntity},
		{services.ErrInvalidState, http.StatusUnprocessableEntity},
		{services.ErrValidation, http.StatusUnprocessableEntity},
		{errors.New("database on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c, rec := testContext(t, "/")
			respondError(c, tt.err)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	// Wrapped errors keep their mapping
	c, rec := testContext(t, "/")
	respondError(c, fmt.Errorf("%w: receipt RCPT-1 already recorded", services.ErrDuplicate))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	c, rec := testContext(t, "/")
	respondError(c, errors.New("pq: connection refused host=10.0.0.3"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

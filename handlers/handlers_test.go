package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/repository"
	"github.com/Puneet-Vishnoi/order-book/service"
)

func TestWriteErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("order with ID 4: %w", repository.ErrNotFound), http.StatusNotFound},
		{"wrapped not found", &service.StoreError{Op: "get order", Err: repository.ErrNotFound}, http.StatusNotFound},
		{"market price", service.ErrCannotDetermineMarketPrice, http.StatusUnprocessableEntity},
		{"quantity", service.ErrInvalidQuantity, http.StatusBadRequest},
		{"price", service.ErrInvalidPrice, http.StatusBadRequest},
		{"name", service.ErrEmptyName, http.StatusBadRequest},
		{"resting order vanished", &service.StoreError{Op: "delete order", Err: fmt.Errorf("order with ID 4: %w", service.ErrRestingOrderMissing)}, http.StatusInternalServerError},
		{"store failure", &service.StoreError{Op: "commit", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, zap.NewNop(), tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestStoreFailureHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, zap.NewNop(), &service.StoreError{Op: "commit", Err: errors.New("pq: password authentication failed")})
	assert.JSONEq(t, `{"error":"storage failure"}`, w.Body.String())
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		param string
		ok    bool
	}{
		{"12", true},
		{"0", false},
		{"-3", false},
		{"x", false},
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tc.param}}

		id, ok := parseID(c, "order")
		assert.Equal(t, tc.ok, ok, tc.param)
		if tc.ok {
			assert.Equal(t, int64(12), id)
		} else {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

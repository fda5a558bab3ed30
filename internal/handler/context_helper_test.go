package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner-api/internal/middleware"
	"github.com/noah-isme/student-planner-api/internal/models"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newOwnerContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newGinContext(method, path, body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1"})
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestRequireOwnerWritesUnauthorized(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/subjects", nil)

	_, ok := requireOwner(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, w).Error["code"])
}

func TestQueryBool(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/tasks?completed=true&flagged=maybe", nil)

	completed, err := queryBool(c, "completed")
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.True(t, *completed)

	_, err = queryBool(c, "flagged")
	assert.Error(t, err)

	missing, err := queryBool(c, "other")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

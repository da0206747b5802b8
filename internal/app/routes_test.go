package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serega19851/task-manager/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHandlerReportsServiceMetadata(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{}
	cfg.App.Name = "Task Manager API"
	cfg.App.Version = "1.0.0"
	cfg.App.Env = "test"
	cfg.App.APIPrefix = "/api/v1"

	r := gin.New()
	r.GET("/", rootHandler(cfg))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message   string `json:"message"`
		Status    string `json:"status"`
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
		Docs      string `json:"docs"`
		API       struct {
			V1        string   `json:"v1"`
			Endpoints []string `json:"endpoints"`
		} `json:"api"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Task Manager API", body.Message)
	assert.Equal(t, "working", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.NotEmpty(t, body.Timestamp)
	assert.Equal(t, "/api/v1", body.API.V1)
	assert.Len(t, body.API.Endpoints, 5)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baymv/app"
	"baymv/domain/energy"
	"baymv/internal"
	"baymv/internal/testkit"
)

func newTestServer(t *testing.T) (*Server, *testkit.InMemoryDatasetRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	datasets := testkit.NewInMemoryDatasetRepository()
	runs := testkit.NewInMemoryRunRepository()
	logger := internal.NewLogger(internal.LogLevelError)

	datasetSvc := app.NewDatasetService(datasets, nil, logger)
	inferenceSvc := app.NewInferenceService(datasets, runs, testkit.NewSeededRNG(), logger, 3)
	reportSvc := app.NewReportService(datasets, runs, inferenceSvc, logger)

	return NewServer(datasetSvc, inferenceSvc, reportSvc, logger), datasets
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedDataset(t *testing.T, datasets *testkit.InMemoryDatasetRepository) *energy.Dataset {
	t.Helper()
	cfg := testkit.DefaultLoadConfig()
	cfg.NoiseStd = 5
	ds := testkit.NewLoadGenerator(cfg).Dataset("api-test")
	require.NoError(t, datasets.Create(context.Background(), ds))
	return ds
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	w := doJSON(t, server.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateAndGetDataset(t *testing.T) {
	server, _ := newTestServer(t)

	obs := testkit.NewLoadGenerator(testkit.DefaultLoadConfig()).Generate()
	w := doJSON(t, server.Router(), http.MethodPost, "/api/datasets", gin.H{
		"name":         "building-7",
		"observations": obs,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created energy.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "building-7", created.Name)
	assert.Len(t, created.Observations, 365)

	w = doJSON(t, server.Router(), http.MethodGet, "/api/datasets/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server.Router(), http.MethodGet, "/api/datasets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "building-7")
}

func TestCreateDataset_TooSmall(t *testing.T) {
	server, _ := newTestServer(t)
	w := doJSON(t, server.Router(), http.MethodPost, "/api/datasets", gin.H{
		"name":         "tiny",
		"observations": []gin.H{{"temperature": 50.0, "energy": 100.0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDataset_NotFound(t *testing.T) {
	server, _ := newTestServer(t)
	w := doJSON(t, server.Router(), http.MethodGet, "/api/datasets/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepEndpoint(t *testing.T) {
	server, datasets := newTestServer(t)
	ds := seedDataset(t, datasets)

	w := doJSON(t, server.Router(), http.MethodPost,
		fmt.Sprintf("/api/datasets/%s/sweep", ds.ID), gin.H{"step": 1.0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result app.SweepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.Results)
	assert.Equal(t, energy.ShapeHeating, result.Results[0].Shape)
}

func TestFitEndpoint(t *testing.T) {
	server, datasets := newTestServer(t)
	ds := seedDataset(t, datasets)

	w := doJSON(t, server.Router(), http.MethodPost,
		fmt.Sprintf("/api/datasets/%s/fit", ds.ID), gin.H{
			"shape":          "3PH",
			"change_point_1": 55.0,
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "posterior")
	assert.Contains(t, w.Body.String(), "fan")
}

func TestSavingsEndpoint(t *testing.T) {
	server, datasets := newTestServer(t)
	baseline := seedDataset(t, datasets)
	reporting := testkit.NewLoadGenerator(testkit.DefaultLoadConfig()).Dataset("reporting")
	require.NoError(t, datasets.Create(context.Background(), reporting))

	w := doJSON(t, server.Router(), http.MethodPost, "/api/savings", gin.H{
		"baseline_id":    baseline.ID.String(),
		"reporting_id":   reporting.ID.String(),
		"shape":          "3PH",
		"change_point_1": 55.0,
		"sample_count":   500,
		"seed":           42,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "distribution")
}

func TestProfileEndpoint(t *testing.T) {
	server, datasets := newTestServer(t)
	ds := seedDataset(t, datasets)

	w := doJSON(t, server.Router(), http.MethodGet,
		fmt.Sprintf("/api/datasets/%s/profile", ds.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "temperature")
	assert.Contains(t, w.Body.String(), "skewness")
}

func TestSweepReportEndpoint(t *testing.T) {
	server, datasets := newTestServer(t)
	ds := seedDataset(t, datasets)

	w := doJSON(t, server.Router(), http.MethodPost,
		fmt.Sprintf("/api/datasets/%s/report", ds.ID), gin.H{"step": 1.0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Change-Point Model Report")
}

func TestDeleteDataset(t *testing.T) {
	server, datasets := newTestServer(t)
	ds := seedDataset(t, datasets)

	w := doJSON(t, server.Router(), http.MethodDelete, "/api/datasets/"+ds.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, server.Router(), http.MethodGet, "/api/datasets/"+ds.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

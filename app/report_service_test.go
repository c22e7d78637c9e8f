package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baymv/domain/energy"
	"baymv/internal"
	"baymv/internal/testkit"
)

func newReportService(t *testing.T) (*ReportService, *testkit.InMemoryDatasetRepository) {
	t.Helper()
	datasets := testkit.NewInMemoryDatasetRepository()
	runs := testkit.NewInMemoryRunRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	inference := NewInferenceService(datasets, runs, testkit.NewSeededRNG(), logger, 3)
	return NewReportService(datasets, runs, inference, logger), datasets
}

func TestBuildSweepReport(t *testing.T) {
	svc, datasets := newReportService(t)
	ds := seedHeatingDataset(t, datasets)

	report, err := svc.BuildSweepReport(context.Background(), SweepRequest{
		DatasetID: ds.ID,
		Step:      1.0,
	})
	require.NoError(t, err)

	assert.Contains(t, report.Markdown, "# Change-Point Model Report: heating-building")
	assert.Contains(t, report.Markdown, "## Model Comparison")
	assert.Contains(t, report.Markdown, "3PH")
	assert.Contains(t, report.Markdown, "baseload")

	// HTML rendering produces real markup, including the comparison table.
	assert.True(t, strings.Contains(report.HTML, "<h1") || strings.Contains(report.HTML, "<h1>"))
	assert.Contains(t, report.HTML, "<table>")
}

func TestBuildSavingsReport(t *testing.T) {
	svc, datasets := newReportService(t)
	baseline := seedHeatingDataset(t, datasets)
	reporting := testkit.NewLoadGenerator(testkit.DefaultLoadConfig()).Dataset("reporting")
	require.NoError(t, datasets.Create(context.Background(), reporting))

	report, err := svc.BuildSavingsReport(context.Background(), SavingsRequest{
		BaselineID:   baseline.ID,
		ReportingID:  reporting.ID,
		Shape:        energy.ShapeHeating,
		ChangePoint1: 55,
		SampleCount:  500,
		Seed:         1,
	})
	require.NoError(t, err)

	assert.Contains(t, report.Markdown, "# Savings Estimate")
	assert.Contains(t, report.Markdown, "credible interval")
	assert.Contains(t, report.HTML, "<li>")
}

func TestDatasetService_IngestAndProfile(t *testing.T) {
	datasets := testkit.NewInMemoryDatasetRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	svc := NewDatasetService(datasets, nil, logger)

	obs := testkit.NewLoadGenerator(testkit.DefaultLoadConfig()).Generate()
	ds, err := svc.Ingest(context.Background(), "building-a", "synthetic", obs)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "building-a", got.Name)

	profile, err := svc.Profile(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 365, profile.Energy.N)

	list, err := svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDatasetService_RejectsTinyDatasets(t *testing.T) {
	datasets := testkit.NewInMemoryDatasetRepository()
	svc := NewDatasetService(datasets, nil, internal.NewLogger(internal.LogLevelError))

	obs := []energy.Observation{{Temperature: 50, Energy: 100}}
	_, err := svc.Ingest(context.Background(), "tiny", "test", obs)
	assert.Error(t, err)
}

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"baymv/domain/bayes"
	"baymv/domain/core"
	"baymv/internal"
	"baymv/ports"
)

// ReportService renders sweep and savings results as markdown and HTML
// measurement reports.
type ReportService struct {
	datasets  ports.DatasetRepository
	runs      ports.RunRepository
	inference *InferenceService
	logger    *internal.Logger
}

// NewReportService creates a report service
func NewReportService(datasets ports.DatasetRepository, runs ports.RunRepository, inference *InferenceService, logger *internal.Logger) *ReportService {
	return &ReportService{
		datasets:  datasets,
		runs:      runs,
		inference: inference,
		logger:    logger,
	}
}

// Report is a rendered measurement report.
type Report struct {
	DatasetID core.DatasetID `json:"dataset_id"`
	Markdown  string         `json:"markdown"`
	HTML      string         `json:"html"`
}

// BuildSweepReport runs a sweep and renders it as a report.
func (s *ReportService) BuildSweepReport(ctx context.Context, req SweepRequest) (*Report, error) {
	sweep, err := s.inference.RunSweep(ctx, req)
	if err != nil {
		return nil, err
	}
	ds, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	md := s.renderSweepMarkdown(ds.Name, sweep)
	return &Report{
		DatasetID: req.DatasetID,
		Markdown:  md,
		HTML:      renderHTML(md),
	}, nil
}

func (s *ReportService) renderSweepMarkdown(datasetName string, sweep *SweepResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Change-Point Model Report: %s\n\n", datasetName)
	fmt.Fprintf(&b, "Sweep over %d model shapes completed in %dms.\n\n", len(sweep.Results), sweep.RuntimeMs)

	b.WriteString("## Model Comparison\n\n")
	b.WriteString("| Shape | Change Point(s) | Log Marginal Likelihood | Candidates |\n")
	b.WriteString("|-------|-----------------|-------------------------|------------|\n")
	for _, r := range sweep.Results {
		if r.Err != "" {
			fmt.Fprintf(&b, "| %s | - | failed: %s | 0 |\n", r.Shape, r.Err)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f | %d |\n",
			r.Shape, formatChangePoints(r.MAP), r.MAP.LogML, len(r.Candidates))
	}
	b.WriteString("\n")

	for _, r := range sweep.Results {
		if r.Err != "" {
			continue
		}
		fmt.Fprintf(&b, "## %s Posterior\n\n", r.Shape)
		fmt.Fprintf(&b, "MAP change point: %s (posterior probability %.3f)\n\n",
			formatChangePoints(r.MAP), r.MAP.Probability)

		b.WriteString("| Coefficient | Mean | 95% Interval |\n")
		b.WriteString("|-------------|------|--------------|\n")
		for _, m := range r.Marginals {
			interval := m.Intervals[len(m.Intervals)-1]
			fmt.Fprintf(&b, "| %s | %.2f | [%.2f, %.2f] |\n",
				m.Name, m.Mean, interval.Lower, interval.Upper)
		}
		b.WriteString("\n")

		if r.OLS != nil {
			fmt.Fprintf(&b, "OLS comparison: R² = %.4f, CV(RMSE) = %.4f\n\n", r.OLS.RSquared, r.OLS.CVRMSE)
		}
	}

	return b.String()
}

// BuildSavingsReport estimates savings and renders the distribution.
func (s *ReportService) BuildSavingsReport(ctx context.Context, req SavingsRequest) (*Report, error) {
	savings, err := s.inference.EstimateSavings(ctx, req)
	if err != nil {
		return nil, err
	}

	md := renderSavingsMarkdown(savings)
	return &Report{
		DatasetID: req.BaselineID,
		Markdown:  md,
		HTML:      renderHTML(md),
	}, nil
}

func renderSavingsMarkdown(savings *SavingsResult) string {
	var b strings.Builder
	dist := savings.Distribution

	b.WriteString("# Savings Estimate\n\n")
	fmt.Fprintf(&b, "Model shape %s, %d Monte Carlo samples (run %s).\n\n",
		savings.Shape, savings.SampleCount, savings.RunID)
	fmt.Fprintf(&b, "- Mean savings: **%.1f**\n", dist.Mean)
	fmt.Fprintf(&b, "- Median savings: %.1f\n", dist.Median)
	for _, interval := range dist.Intervals {
		fmt.Fprintf(&b, "- %.0f%% credible interval: [%.1f, %.1f]\n",
			interval.Level*100, interval.Lower, interval.Upper)
	}
	b.WriteString("\n")
	return b.String()
}

func formatChangePoints(c bayes.Candidate) string {
	if c.ChangePoint2 != 0 {
		return fmt.Sprintf("%.1f / %.1f", c.ChangePoint1, c.ChangePoint2)
	}
	return fmt.Sprintf("%.1f", c.ChangePoint1)
}

// renderHTML converts report markdown to HTML.
func renderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

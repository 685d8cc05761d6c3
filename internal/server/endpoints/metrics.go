package endpoints

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/metrics"
	"github.com/jackzampolin/docex/internal/svcctx"
)

// ListMetricsResponse is the response for listing metrics.
type ListMetricsResponse struct {
	Metrics []metrics.Metric `json:"metrics"`
	Count   int              `json:"count"`
}

// metricsFilter reads the stage, provider, model and success query params.
func metricsFilter(q url.Values) metrics.Filter {
	f := metrics.Filter{
		Stage:    q.Get("stage"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
	}
	if s := q.Get("success"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			f.Success = &b
		}
	}
	return f
}

// ListMetricsEndpoint handles GET /metrics.
type ListMetricsEndpoint struct{}

var _ api.Endpoint = (*ListMetricsEndpoint)(nil)

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List model-call metrics
//	@Description	Recent language-model calls, newest first, with optional filtering
//	@Tags			metrics
//	@Produce		json
//	@Param			stage		query		string	false	"Filter by stage (text_parse, vision)"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Param			success		query		bool	false	"Filter by outcome"
//	@Param			limit		query		int		false	"Maximum results (default 100)"
//	@Success		200			{object}	ListMetricsResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not enabled")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result := rec.List(metricsFilter(r.URL.Query()), limit)
	if result == nil {
		result = []metrics.Metric{}
	}
	writeJSON(w, http.StatusOK, ListMetricsResponse{
		Metrics: result,
		Count:   len(result),
	})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var stage, provider, model string
	var limit int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List recent model calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if stage != "" {
				params.Set("stage", stage)
			}
			if provider != "" {
				params.Set("provider", provider)
			}
			if model != "" {
				params.Set("model", model)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			path := "/metrics"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}
			var resp ListMetricsResponse
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by stage (text_parse, vision)")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum results")

	cmd.AddCommand(metricsSummaryCommand(getServerURL))
	return cmd
}

// MetricsSummaryEndpoint handles GET /metrics/summary.
type MetricsSummaryEndpoint struct{}

var _ api.Endpoint = (*MetricsSummaryEndpoint)(nil)

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Model-call summary
//	@Description	Latency percentiles, token totals, per-stage stats and failure counts
//	@Tags			metrics
//	@Produce		json
//	@Param			stage		query		string	false	"Filter by stage (text_parse, vision)"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Success		200			{object}	metrics.Summary
//	@Failure		503			{object}	ErrorResponse
//	@Router			/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not enabled")
		return
	}
	writeJSON(w, http.StatusOK, rec.GetSummary(metricsFilter(r.URL.Query())))
}

// Command is nil; the summary command hangs under "metrics".
func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

func metricsSummaryCommand(getServerURL func() string) *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize model calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/metrics/summary"
			if stage != "" {
				path += "?" + url.Values{"stage": {stage}}.Encode()
			}
			var resp metrics.Summary
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by stage (text_parse, vision)")
	return cmd
}

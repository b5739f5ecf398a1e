package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/httpx"
	"github.com/statex/statex/pkg/metrics"
)

// HandlerConfig tunes the export HTTP surface.
type HandlerConfig struct {
	// OutputDir is where file exports are written.
	OutputDir string

	// MaxExportWindow caps the requested range when both bounds are
	// given. Zero means no cap.
	MaxExportWindow time.Duration

	// Timezone and Pattern are the default rendering settings, each
	// overridable per request.
	Timezone string
	Pattern  string

	// DecimalComma renders numbers with a comma radix by default.
	DecimalComma bool
}

// StorageChecker reports output directory usage so file exports can be
// refused when the directory is over its configured budget.
type StorageChecker interface {
	OverLimit() (bool, error)
}

// Handler serves the export HTTP endpoints.
type Handler struct {
	exporter *Exporter
	config   HandlerConfig
	storage  StorageChecker
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewHandler creates an export handler backed by the given exporter.
// storage may be nil, in which case file exports are never refused for
// capacity.
func NewHandler(exporter *Exporter, config HandlerConfig, storage StorageChecker, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		exporter: exporter,
		config:   config,
		storage:  storage,
		logger:   logger,
	}
}

// SetMetrics attaches Prometheus instruments recording export outcomes.
func (h *Handler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// HandleExport handles GET /v1/export
// Query params:
//   - format: "tsv", "csv" or "json" (default: tsv)
//   - start, end: RFC3339 timestamps, either side optional
//   - ids: comma-separated statistic id filter
//   - timezone, pattern, delimiter, decimal_comma: rendering overrides
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	began := time.Now()
	timestamp := began.UTC().Format("20060102-150405")
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=statex-export-%s.%s", timestamp, opts.Format.Extension()))

	tw := &trackingWriter{ResponseWriter: w}
	result, err := h.exporter.Export(r.Context(), tw, opts)
	h.recordExport(opts.Format, result, began, err)
	if err != nil {
		h.logger.Errorf("export failed: %v", err)
		if !tw.wrote {
			httpx.RespondErrorString(w, http.StatusInternalServerError, "export failed")
		}
		return
	}
}

// fileExportRequest is the POST /v1/export/files body.
type fileExportRequest struct {
	Format       string   `json:"format"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	StatisticIDs []string `json:"statistic_ids"`
	Filename     string   `json:"filename"`
	SplitByKind  bool     `json:"split_by_kind"`
	Timezone     string   `json:"timezone"`
	Pattern      string   `json:"pattern"`
	Delimiter    string   `json:"delimiter"`
	DecimalComma *bool    `json:"decimal_comma"`
}

// fileExportResponse is the POST /v1/export/files reply.
type fileExportResponse struct {
	Result *Result      `json:"result"`
	Files  []FileResult `json:"files"`
}

// HandleExportFiles handles POST /v1/export/files
// Writes the export into the configured output directory instead of
// streaming it, optionally split into sensor and counter files.
func (h *Handler) HandleExportFiles(w http.ResponseWriter, r *http.Request) {
	var req fileExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	opts, err := h.fileOptions(req)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	if h.storage != nil {
		over, err := h.storage.OverLimit()
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}
		if over {
			httpx.RespondErrorString(w, http.StatusInsufficientStorage,
				"output directory is over its storage budget")
			return
		}
	}

	began := time.Now()
	result, files, err := h.exporter.ExportFiles(r.Context(), opts)
	h.recordExport(opts.Format, result, began, err)
	if err != nil {
		h.logger.Errorf("file export failed: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "export failed")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, fileExportResponse{Result: result, Files: files})
}

// recordExport updates the export instruments after an attempt, successful
// or not.
func (h *Handler) recordExport(format Format, result *Result, began time.Time, err error) {
	if h.metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.ExportsTotal.WithLabelValues(string(format), status).Inc()
	h.metrics.ExportDuration.Observe(time.Since(began).Seconds())
	if result != nil {
		h.metrics.RowsExported.Add(float64(result.Rows))
		h.metrics.SeriesSkipped.Add(float64(result.SeriesSkipped))
	}
}

// parseOptions builds export options from query parameters, rejecting
// anything malformed before a single output byte is written.
func (h *Handler) parseOptions(r *http.Request) (ExportOptions, error) {
	query := r.URL.Query()

	format, err := ParseFormat(query.Get("format"))
	if err != nil {
		return ExportOptions{}, err
	}
	if err := validateDelimiter(query.Get("delimiter")); err != nil {
		return ExportOptions{}, err
	}

	start, end, err := h.parseWindow(query.Get("start"), query.Get("end"))
	if err != nil {
		return ExportOptions{}, err
	}

	opts := ExportOptions{
		Start:            start,
		End:              end,
		Format:           format,
		Delimiter:        query.Get("delimiter"),
		Timezone:         h.config.Timezone,
		Pattern:          h.config.Pattern,
		DecimalSeparator: separatorFor(h.config.DecimalComma),
	}
	if ids := query.Get("ids"); ids != "" {
		opts.StatisticIDs = strings.Split(ids, ",")
	}
	if tz := query.Get("timezone"); tz != "" {
		opts.Timezone = tz
	}
	if pattern := query.Get("pattern"); pattern != "" {
		opts.Pattern = pattern
	}
	if dc := query.Get("decimal_comma"); dc != "" {
		comma, err := strconv.ParseBool(dc)
		if err != nil {
			return ExportOptions{}, fmt.Errorf("invalid decimal_comma %q", dc)
		}
		opts.DecimalSeparator = separatorFor(comma)
	}

	if _, err := opts.pipeline().withDefaults().location(); err != nil {
		return ExportOptions{}, err
	}
	return opts, nil
}

func (h *Handler) fileOptions(req fileExportRequest) (FileOptions, error) {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return FileOptions{}, err
	}
	if err := validateDelimiter(req.Delimiter); err != nil {
		return FileOptions{}, err
	}

	start, end, err := h.parseWindow(req.Start, req.End)
	if err != nil {
		return FileOptions{}, err
	}

	opts := FileOptions{
		ExportOptions: ExportOptions{
			Start:            start,
			End:              end,
			StatisticIDs:     req.StatisticIDs,
			Format:           format,
			Delimiter:        req.Delimiter,
			Timezone:         h.config.Timezone,
			Pattern:          h.config.Pattern,
			DecimalSeparator: separatorFor(h.config.DecimalComma),
		},
		Dir:         h.config.OutputDir,
		SplitByKind: req.SplitByKind,
	}
	if req.Timezone != "" {
		opts.Timezone = req.Timezone
	}
	if req.Pattern != "" {
		opts.Pattern = req.Pattern
	}
	if req.DecimalComma != nil {
		opts.DecimalSeparator = separatorFor(*req.DecimalComma)
	}
	if req.Filename != "" {
		stem, err := sanitizeFilename(req.Filename)
		if err != nil {
			return FileOptions{}, err
		}
		opts.Filename = stem
	}

	if _, err := opts.pipeline().withDefaults().location(); err != nil {
		return FileOptions{}, err
	}
	return opts, nil
}

// parseWindow parses both bounds and enforces the window cap when the
// request pins both sides.
func (h *Handler) parseWindow(startParam, endParam string) (time.Time, time.Time, error) {
	start, err := ParseTime(startParam)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseTime(endParam)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() {
		if !start.Before(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("start must be before end")
		}
		if h.config.MaxExportWindow > 0 && end.Sub(start) > h.config.MaxExportWindow {
			return time.Time{}, time.Time{}, fmt.Errorf("time range too large, maximum is %v", h.config.MaxExportWindow)
		}
	}
	return start, end, nil
}

// ParseTime parses an RFC3339 or plain datetime bound. Empty leaves the
// bound open.
func ParseTime(param string) (time.Time, error) {
	if param == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, param); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", param); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want RFC3339", param)
}

// validateDelimiter rejects delimiter overrides wider than one byte.
// Empty means the format default.
func validateDelimiter(d string) error {
	if len(d) > 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	return nil
}

// sanitizeFilename reduces a requested filename to a bare stem so file
// exports cannot escape the output directory.
func sanitizeFilename(name string) (string, error) {
	stem := filepath.Base(name)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	if stem == "" || stem == "." || stem == ".." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return stem, nil
}

func separatorFor(comma bool) string {
	if comma {
		return ","
	}
	return DefaultDecimalSeparator
}

// trackingWriter remembers whether the response body was started, so
// late failures do not try to write a second status line.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(p)
}

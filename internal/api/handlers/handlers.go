// Package handlers implements the JSON boundary the dashboard front end
// talks to: dataset upload plus the report endpoints. Handlers compute
// every report section independently so one failing section renders as an
// inline error without aborting the rest of the view.
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamdaviwilliam/phiq-insights/internal/analytics"
	"github.com/iamdaviwilliam/phiq-insights/internal/api/middleware"
	"github.com/iamdaviwilliam/phiq-insights/internal/format"
	"github.com/iamdaviwilliam/phiq-insights/internal/ingest"
	"github.com/iamdaviwilliam/phiq-insights/internal/model"
	"github.com/iamdaviwilliam/phiq-insights/internal/session"
)

// ReportsHandler serves dataset uploads and report queries.
type ReportsHandler struct {
	normalizer *ingest.Normalizer
	engine     *analytics.Engine
	store      *session.Store
	maxUpload  int64
	log        zerolog.Logger
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(n *ingest.Normalizer, e *analytics.Engine, s *session.Store, maxUpload int64, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		normalizer: n,
		engine:     e,
		store:      s,
		maxUpload:  maxUpload,
		log:        log,
	}
}

// UploadDataset handles POST /api/dataset.
// The multipart field "file" carries the CSV or XLSX export. Re-uploading
// byte-identical content is a cache hit and skips re-parsing.
func (h *ReportsHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Form field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	hash := session.HashBytes(data)
	if sess, ok := h.store.Lookup(hash); ok {
		h.log.Info().Str("session_id", sess.ID).Msg("Upload matched cached dataset")
		middleware.WriteJSON(w, http.StatusOK, h.uploadResponse(sess, true))
		return
	}

	ds, report, err := h.normalizer.Load(header.Filename, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, ingest.ErrNotTabular) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Ingestion failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to ingest dataset")
		return
	}

	sess := h.store.Put(header.Filename, hash, ds, report)
	h.log.Info().
		Str("session_id", sess.ID).
		Str("filename", header.Filename).
		Int("rows_kept", report.RowsKept).
		Int("rows_dropped", report.Dropped()).
		Msg("Dataset ingested")

	middleware.WriteJSON(w, http.StatusOK, h.uploadResponse(sess, false))
}

func (h *ReportsHandler) uploadResponse(sess *session.Session, cached bool) map[string]interface{} {
	ds := sess.Dataset
	return map[string]interface{}{
		"session":    sess,
		"cached":     cached,
		"row_count":  ds.Len(),
		"states":     ds.States(),
		"franchises": ds.Franchises(),
		"segments":   ds.Segments(),
		"months":     ds.Months(),
		"cohorts":    h.engine.Rules().CohortNames(),
	}
}

// Overview handles GET /api/report/overview.
func (h *ReportsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, "")
}

// ManagerView handles GET /api/report/manager/{cohort}: the overview
// restricted to one manager cohort.
func (h *ReportsHandler) ManagerView(w http.ResponseWriter, r *http.Request) {
	cohort := r.PathValue("cohort")
	if cohort == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Cohort name is required")
		return
	}
	h.serveReport(w, r, cohort)
}

func (h *ReportsHandler) serveReport(w http.ResponseWriter, r *http.Request, cohort string) {
	sess, err := h.store.Current()
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Upload a dataset first")
		return
	}

	fc := filterFromQuery(r)
	fc.Cohort = cohort

	ds, err := h.engine.Filter(sess.Dataset, fc)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	total := h.engine.TotalRevenue(ds)
	resp := map[string]interface{}{
		"row_count": ds.Len(),
		"revenue": map[string]interface{}{
			"total":           total,
			"total_formatted": format.Currency(total),
			"compact":         format.CurrencyCompact(total),
		},
		"ticket":          h.section("ticket", func() (interface{}, error) { return h.ticketSection(ds) }),
		"revenue_series":  h.section("revenue_series", func() (interface{}, error) { return h.engine.RevenueByPeriod(ds, fc), nil }),
		"purchase_types":  h.section("purchase_types", func() (interface{}, error) { return h.purchaseTypeSection(ds) }),
		"top_customers":   h.section("top_customers", func() (interface{}, error) { return h.engine.TopCustomers(ds, 10), nil }),
		"top_products":    h.section("top_products", func() (interface{}, error) { return h.engine.TopProducts(ds, 10, fc), nil }),
		"payment_methods": h.section("payment_methods", func() (interface{}, error) { return h.engine.RevenueByPayment(ds), nil }),
	}
	if cohort != "" {
		resp["cohort"] = cohort
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// RecurrenceReport handles GET /api/report/recurrence?customers=a,b.
func (h *ReportsHandler) RecurrenceReport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Current()
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Upload a dataset first")
		return
	}

	selected := splitParam(r.URL.Query().Get("customers"))
	if len(selected) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Select one or more customers")
		return
	}
	wanted := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		wanted[c] = struct{}{}
	}

	fc := filterFromQuery(r)
	ds, err := h.engine.Filter(sess.Dataset, fc)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := make([]model.Transaction, 0, len(ds.Rows))
	for _, t := range ds.Rows {
		if _, ok := wanted[t.CustomerID]; ok {
			rows = append(rows, t)
		}
	}

	recurrence := h.engine.Recurrence(ds.WithRows(rows))
	display := make([]analytics.RecurrenceRow, 0, len(recurrence))
	for _, rec := range recurrence {
		display = append(display, rec.Display())
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"customers": display,
		"count":     len(display),
	})
}

// section runs one report computation in isolation: an error becomes an
// inline {"error": ...} object for that section only.
func (h *ReportsHandler) section(name string, fn func() (interface{}, error)) interface{} {
	v, err := fn()
	if err != nil {
		h.log.Warn().Err(err).Str("section", name).Msg("Report section degraded")
		return map[string]string{"error": err.Error()}
	}
	return v
}

func (h *ReportsHandler) ticketSection(ds *model.Dataset) (interface{}, error) {
	ticket, err := h.engine.AverageTicket(ds)
	if errors.Is(err, analytics.ErrNoOrderColumn) {
		// Degraded, not failed: zero value plus a user-visible warning.
		return map[string]interface{}{
			"value":     ticket,
			"formatted": format.Currency(ticket),
			"warning":   err.Error(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"value":     ticket,
		"formatted": format.Currency(ticket),
		"compact":   format.CurrencyCompact(ticket),
	}, nil
}

func (h *ReportsHandler) purchaseTypeSection(ds *model.Dataset) (interface{}, error) {
	classified, err := h.engine.Classify(ds)
	if err != nil {
		return nil, err
	}
	return analytics.SummarizeByType(classified), nil
}

// filterFromQuery builds a FilterContext from query parameters:
// states, franchises, segments (comma-separated), from/to (yyyy-mm-dd),
// granularity (month|day) and metric (quantity|revenue).
func filterFromQuery(r *http.Request) model.FilterContext {
	q := r.URL.Query()

	fc := model.FilterContext{
		States:      splitParam(q.Get("states")),
		Franchises:  splitParam(q.Get("franchises")),
		Segments:    splitParam(q.Get("segments")),
		Granularity: model.Granularity(q.Get("granularity")),
		Metric:      model.ProductMetric(q.Get("metric")),
	}
	if from, err := time.ParseInLocation("2006-01-02", q.Get("from"), time.UTC); err == nil {
		fc.From = from
	}
	if to, err := time.ParseInLocation("2006-01-02", q.Get("to"), time.UTC); err == nil {
		fc.To = to
	}
	return fc
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-books/meridian/internal/ledger"
	"github.com/meridian-books/meridian/internal/observability"
	"github.com/meridian-books/meridian/internal/platform/httpx"
	"github.com/meridian-books/meridian/internal/reports"
	"github.com/meridian-books/meridian/internal/shared"
)

const dateLayout = "2006-01-02"

// exports project the full structure, not one page
const exportPageSize = 1 << 20

// Options carries the tunable knobs for the report endpoints.
type Options struct {
	CacheTTL        time.Duration
	ExportRateLimit int
}

// Handler wires the report endpoints for one account book.
type Handler struct {
	logger    *slog.Logger
	service   *reports.Service
	cache     *reportCache
	metrics   *observability.Metrics
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the report handler. The Redis client may be nil,
// which disables response caching.
func NewHandler(logger *slog.Logger, service *reports.Service, redisClient *redis.Client, metrics *observability.Metrics, opts Options) *Handler {
	limit := opts.ExportRateLimit
	if limit <= 0 {
		limit = 10
	}
	return &Handler{
		logger:    logger,
		service:   service,
		cache:     newReportCache(redisClient, opts.CacheTTL),
		metrics:   metrics,
		rateLimit: httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/account-books/{accountBookID}", func(r chi.Router) {
		r.Get("/trial-balance", h.handleTrialBalance)
		r.Get("/ledger", h.handleLedger)
		r.Get("/reports", h.handleReport)
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Get("/trial-balance/export.csv", h.handleTrialBalanceCSV)
			r.Get("/ledger/export.csv", h.handleLedgerCSV)
		})
	})
}

type listParams struct {
	accountBookID uuid.UUID
	start         time.Time
	end           time.Time
	page          int
	pageSize      int
	sortBy        string
	sortOrder     shared.SortOrder
	accountCode   string
}

func parseListParams(r *http.Request) (listParams, error) {
	var p listParams
	accountBookID, err := uuid.Parse(chi.URLParam(r, "accountBookID"))
	if err != nil {
		return p, fmt.Errorf("%w: invalid account book id", httpx.ErrBadRequest)
	}
	p.accountBookID = accountBookID

	q := r.URL.Query()
	p.start, err = time.Parse(dateLayout, q.Get("startDate"))
	if err != nil {
		return p, fmt.Errorf("%w: startDate must be YYYY-MM-DD", httpx.ErrBadRequest)
	}
	p.end, err = time.Parse(dateLayout, q.Get("endDate"))
	if err != nil {
		return p, fmt.Errorf("%w: endDate must be YYYY-MM-DD", httpx.ErrBadRequest)
	}
	if p.end.Before(p.start) {
		return p, fmt.Errorf("%w: endDate precedes startDate", httpx.ErrBadRequest)
	}

	if p.page, err = parsePositiveInt(q.Get("page"), 1); err != nil {
		return p, fmt.Errorf("%w: invalid page", httpx.ErrBadRequest)
	}
	if p.pageSize, err = parsePositiveInt(q.Get("pageSize"), shared.DefaultPageSize); err != nil {
		return p, fmt.Errorf("%w: invalid pageSize", httpx.ErrBadRequest)
	}

	switch sortBy := q.Get("sortBy"); sortBy {
	case "", reports.SortByAccountCode, reports.SortByCreatedAt:
		p.sortBy = sortBy
	default:
		return p, fmt.Errorf("%w: unknown sortBy %q", httpx.ErrBadRequest, sortBy)
	}
	switch order := q.Get("sortOrder"); order {
	case "", string(shared.SortOrderAsc):
		p.sortOrder = shared.SortOrderAsc
	case string(shared.SortOrderDesc):
		p.sortOrder = shared.SortOrderDesc
	default:
		return p, fmt.Errorf("%w: unknown sortOrder %q", httpx.ErrBadRequest, order)
	}

	p.accountCode = q.Get("accountCode")
	return p, nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("not a positive integer: %q", raw)
	}
	return v, nil
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	key := trialBalanceCacheKey(p)
	if payload, ok := h.cache.Get(r.Context(), key); ok {
		h.metrics.ObserveCacheLookup(true)
		writeJSONBytes(w, payload)
		return
	}
	h.metrics.ObserveCacheLookup(false)

	payload, err, _ := singleflightBuild(r.Context(), key, func(ctx context.Context) ([]byte, error) {
		page, err := h.service.TrialBalance(ctx, reports.TrialBalanceQuery{
			AccountBookID: p.accountBookID,
			StartDate:     p.start,
			EndDate:       p.end,
			Page:          p.page,
			PageSize:      p.pageSize,
			SortBy:        p.sortBy,
			SortOrder:     p.sortOrder,
		})
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(page)
		if err != nil {
			return nil, err
		}
		h.cache.Set(ctx, key, raw)
		return raw, nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSONBytes(w, payload)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	page, err := h.service.Ledger(r.Context(), reports.LedgerQuery{
		AccountBookID: p.accountBookID,
		StartDate:     p.start,
		EndDate:       p.end,
		AccountCode:   p.accountCode,
		Page:          p.page,
		PageSize:      p.pageSize,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	sheetType := r.URL.Query().Get("sheetType")
	if _, err := reports.ParseSheetType(sheetType); err != nil {
		h.respondError(w, err)
		return
	}

	key := buildCacheKey(p.accountBookID, sheetType, p.start, p.end)
	if payload, ok := h.cache.Get(r.Context(), key); ok {
		h.metrics.ObserveCacheLookup(true)
		writeJSONBytes(w, payload)
		return
	}
	h.metrics.ObserveCacheLookup(false)

	payload, err := h.buildReport(r.Context(), key, p.accountBookID, sheetType, p.start, p.end)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSONBytes(w, payload)
}

// buildReport computes one statement behind singleflight and stores the
// serialised response in the cache.
func (h *Handler) buildReport(ctx context.Context, key string, accountBookID uuid.UUID, sheetType string, start, end time.Time) ([]byte, error) {
	payload, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) ([]byte, error) {
		content, err := h.service.Report(ctx, reports.ReportQuery{
			AccountBookID: accountBookID,
			SheetType:     sheetType,
			StartDate:     start,
			EndDate:       end,
		})
		h.metrics.ObserveReportBuild(sheetType, err)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(content)
		if err != nil {
			return nil, err
		}
		h.cache.Set(ctx, key, raw)
		return raw, nil
	})
	return payload, err
}

// WarmReport computes a statement and primes the response cache, so the
// next matching request is a cache hit. Used by the warmup job.
func (h *Handler) WarmReport(ctx context.Context, accountBookID uuid.UUID, sheetType string, start, end time.Time) error {
	if _, err := reports.ParseSheetType(sheetType); err != nil {
		return err
	}
	key := buildCacheKey(accountBookID, sheetType, start, end)
	_, err := h.buildReport(ctx, key, accountBookID, sheetType, start, end)
	return err
}

func (h *Handler) handleTrialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	page, err := h.service.TrialBalance(r.Context(), reports.TrialBalanceQuery{
		AccountBookID: p.accountBookID,
		StartDate:     p.start,
		EndDate:       p.end,
		Page:          1,
		PageSize:      exportPageSize,
		SortBy:        p.sortBy,
		SortOrder:     p.sortOrder,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=trial_balance.csv")
	if err := writeTrialBalanceCSV(w, page.Data, p.start, p.end); err != nil {
		h.logger.Error("stream trial balance csv", slog.Any("error", err))
	}
}

func (h *Handler) handleLedgerCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	page, err := h.service.Ledger(r.Context(), reports.LedgerQuery{
		AccountBookID: p.accountBookID,
		StartDate:     p.start,
		EndDate:       p.end,
		AccountCode:   p.accountCode,
		Page:          1,
		PageSize:      exportPageSize,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=ledger.csv")
	if err := writeLedgerCSV(w, page.Data, p.start, p.end); err != nil {
		h.logger.Error("stream ledger csv", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reports.ErrUnsupportedSheetType):
		httpx.Problem(w, http.StatusBadRequest, "Unsupported Sheet Type", err.Error())
	case errors.Is(err, ledger.ErrImbalance):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Ledger Imbalance", err.Error())
	case errors.Is(err, ledger.ErrSchema):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Ledger Data", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusServiceUnavailable, "Request Cancelled", "")
	default:
		if !errors.Is(err, httpx.ErrBadRequest) && h.logger != nil {
			h.logger.Error("report request failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func writeJSONBytes(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

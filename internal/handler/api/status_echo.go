package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/risk"
	"TradePulse/internal/service/cache"
	svcmetrics "TradePulse/internal/service/metrics"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/services/model"
	"TradePulse/internal/tickstore"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusEchoHandler exposes the read-only operational API: account stats,
// recent trades and ticks, and the classifier state. Responses are cached
// briefly and rate limited per client IP.
type StatusEchoHandler struct {
	logger     *xlogger.Logger
	risk       *risk.Manager
	ticks      *tickstore.Store
	classifier *model.Classifier
	archive    domrepo.LedgerArchive // optional, nil when archival is off
	cache      cache.BytesCache
	limiter    *ratelimit.Limiter
	cacheTTL   time.Duration
}

func NewStatusEchoHandler(
	logger *xlogger.Logger,
	riskMgr *risk.Manager,
	ticks *tickstore.Store,
	classifier *model.Classifier,
	archive domrepo.LedgerArchive,
	bytesCache cache.BytesCache,
	limiter *ratelimit.Limiter,
) *StatusEchoHandler {
	svcmetrics.Register()
	return &StatusEchoHandler{
		logger:     logger,
		risk:       riskMgr,
		ticks:      ticks,
		classifier: classifier,
		archive:    archive,
		cache:      bytesCache,
		limiter:    limiter,
		cacheTTL:   5 * time.Second,
	}
}

func (h *StatusEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/stats", h.Stats)
	g.GET("/trades", h.Trades)
	g.GET("/ticks", h.Ticks)
	g.GET("/model", h.Model)
}

// Health reports process liveness and, when archival is enabled, archive
// reachability. Archive trouble degrades the report but stays 200: the
// engine trades from memory either way.
func (h *StatusEchoHandler) Health(c echo.Context) error {
	res := map[string]string{"status": "ok"}
	if h.archive != nil {
		if err := h.archive.Health(c.Request().Context()); err != nil {
			res["archive"] = "unreachable"
		} else {
			res["archive"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StatusEchoHandler) allow(c echo.Context, endpoint string) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(endpoint+":"+c.RealIP(), 10, 5)
}

// cached serves the endpoint's response from the bytes cache when fresh,
// otherwise builds it and stores the result.
func (h *StatusEchoHandler) cached(c echo.Context, endpoint, key string, build func() (interface{}, error)) error {
	start := time.Now()
	defer func() {
		svcmetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if !h.allow(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			svcmetrics.APICacheHits.WithLabelValues(endpoint).Inc()
			var data interface{}
			if json.Unmarshal(b, &data) == nil {
				return xhttp.SuccessResponse(c, data)
			}
		}
	}

	data, err := build()
	if err != nil {
		svcmetrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error(endpoint+" handler error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(data); err == nil {
			_ = h.cache.SetBytes(key, b, h.cacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, data)
}

func (h *StatusEchoHandler) Stats(c echo.Context) error {
	return h.cached(c, "stats", "api:stats", func() (interface{}, error) {
		return h.risk.Stats(), nil
	})
}

func (h *StatusEchoHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "api:trades:" + req.Symbol + ":" + strconv.Itoa(req.Limit)
	return h.cached(c, "trades", key, func() (interface{}, error) {
		// the archive holds the long history; fall back to the in-memory
		// ledger when archival is disabled
		if h.archive != nil {
			return h.archive.QueryTrades(c.Request().Context(), req.Symbol, req.Limit)
		}
		recs := h.risk.History(req.Limit)
		if req.Symbol != "" {
			filtered := recs[:0]
			for _, rec := range recs {
				if rec.Symbol == req.Symbol {
					filtered = append(filtered, rec)
				}
			}
			recs = filtered
		}
		return recs, nil
	})
}

func (h *StatusEchoHandler) Ticks(c echo.Context) error {
	req := &models.TicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "api:ticks:" + req.Symbol + ":" + strconv.Itoa(req.N)
	return h.cached(c, "ticks", key, func() (interface{}, error) {
		return h.ticks.Recent(req.Symbol, req.N), nil
	})
}

func (h *StatusEchoHandler) Model(c echo.Context) error {
	return h.cached(c, "model", "api:model", func() (interface{}, error) {
		return h.classifier.Info(), nil
	})
}

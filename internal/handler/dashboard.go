package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"sentiment-desk/internal/cache"
	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

var tickerParam = regexp.MustCompile(`^[A-Z0-9.^=-]{1,16}$`)

func (h *Handler) ticker(c *gin.Context) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if !tickerParam.MatchString(ticker) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticker: " + ticker})
		return "", false
	}
	return ticker, true
}

func (h *Handler) loadView(c *gin.Context, ticker string) (*dashboard.View, bool) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.load-view")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	pricesMod, sentimentMod := h.artifacts.ModTimes(ticker)
	key := cache.ViewKey(ticker, pricesMod, sentimentMod)
	if h.cache != nil {
		if v, ok := h.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v, true
		}
	}

	v, err := dashboard.Load(ctx, h.artifacts, ticker)
	if err != nil {
		if errors.Is(err, dashboard.ErrNotGenerated) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return nil, false
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if h.cache != nil {
		h.cache.Set(ctx, key, v)
	}
	return v, true
}

// GetDashboard godoc
// @Summary      Get the sentiment dashboard for a ticker
// @Description  Returns latest close, mean confidence, dominant sentiment, per-label statistics, price series and headlines from the last pipeline run
// @Tags         dashboard
// @Produce      json
// @Param        ticker  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  dashboard.View
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tickers/{ticker}/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	v, ok := h.loadView(c, ticker)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetPrices godoc
// @Summary      Get the daily price series for a ticker
// @Tags         dashboard
// @Produce      json
// @Param        ticker  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/tickers/{ticker}/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	v, ok := h.loadView(c, ticker)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "prices": v.Prices})
}

// GetHeadlines godoc
// @Summary      Get classified headlines for a ticker
// @Description  Optionally filtered to one sentiment label
// @Tags         dashboard
// @Produce      json
// @Param        ticker     path   string  true   "Ticker symbol (e.g., AAPL)"
// @Param        sentiment  query  string  false  "positive, negative or neutral"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tickers/{ticker}/headlines [get]
func (h *Handler) GetHeadlines(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}

	var label domain.SentimentLabel
	if raw := strings.TrimSpace(c.Query("sentiment")); raw != "" {
		parsed, err := domain.ParseSentimentLabel(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		label = parsed
	}

	v, ok := h.loadView(c, ticker)
	if !ok {
		return
	}
	rows := dashboard.FilterHeadlines(v.Headlines, label)
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "count": len(rows), "headlines": rows})
}

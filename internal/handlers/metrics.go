package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus registry in text format.
type MetricsHandler struct {
	handler gin.HandlerFunc
}

func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &MetricsHandler{
		handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
}

func (h *MetricsHandler) Serve(c *gin.Context) {
	h.handler(c)
}

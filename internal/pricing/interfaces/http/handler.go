// Package http 定价服务的 HTTP 接口
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/derivpricing/internal/pricing/application"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/pkg/response"
)

// PricingHandler HTTP 处理器
type PricingHandler struct {
	app     *application.PricingService
	service string
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(app *application.PricingService, service string) *PricingHandler {
	return &PricingHandler{app: app, service: service}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1/price")
	{
		api.POST("/option/:kind", h.PriceOption)
		api.POST("/option-strategy/:kind", h.PriceStrategy)
		api.POST("/bond/:kind", h.PriceBond)
		api.POST("/structured-product/:kind", h.PriceStructured)
		api.POST("/batch", h.BatchPrice)
	}
}

// Health 健康检查
func (h *PricingHandler) Health(c *gin.Context) {
	response.SuccessWithRawData(c, gin.H{
		"status":    "healthy",
		"service":   h.service,
		"timestamp": time.Now().Unix(),
	})
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var cmd application.PriceOptionCommand
	if !bind(c, &cmd) {
		return
	}
	result, err := h.app.PriceOption(c.Request.Context(), c.Param("kind"), cmd)
	reply(c, result, err)
}

// PriceStrategy 期权组合定价
func (h *PricingHandler) PriceStrategy(c *gin.Context) {
	var cmd application.PriceStrategyCommand
	if !bind(c, &cmd) {
		return
	}
	result, err := h.app.PriceStrategy(c.Request.Context(), c.Param("kind"), cmd)
	reply(c, result, err)
}

// PriceBond 债券定价
func (h *PricingHandler) PriceBond(c *gin.Context) {
	var cmd application.PriceBondCommand
	if !bind(c, &cmd) {
		return
	}
	result, err := h.app.PriceBond(c.Request.Context(), c.Param("kind"), cmd)
	reply(c, result, err)
}

// PriceStructured 结构化产品定价
func (h *PricingHandler) PriceStructured(c *gin.Context) {
	var cmd application.PriceStructuredCommand
	if !bind(c, &cmd) {
		return
	}
	result, err := h.app.PriceStructured(c.Request.Context(), c.Param("kind"), cmd)
	reply(c, result, err)
}

// BatchPrice 批量定价
func (h *PricingHandler) BatchPrice(c *gin.Context) {
	var cmd application.BatchPriceCommand
	if !bind(c, &cmd) {
		return
	}
	result, err := h.app.BatchPrice(c.Request.Context(), cmd)
	reply(c, result, err)
}

// bind 解码请求体，字段校验在应用层完成
func bind(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, application.ToXError(domain.InvalidInput("", "malformed request body: %v", err)))
		return false
	}
	return true
}

func reply(c *gin.Context, data any, err error) {
	if err != nil {
		response.Error(c, application.ToXError(err))
		return
	}
	response.Success(c, data)
}

// Package response 提供统一的 HTTP 响应封装
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/xerrors"
)

// HTTPStatusProvider 能够提供 HTTP 状态码的错误
type HTTPStatusProvider interface {
	HTTPStatus() int
}

// Locator 能够定位出错产品与字段的错误
type Locator interface {
	Location() (product, field string)
}

// Success 发送成功响应：HTTP 200，业务码 0
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"msg":  "success",
		"data": data,
	})
}

// SuccessWithRawData 发送不包装的原始数据，用于健康检查
func SuccessWithRawData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error 按错误类型映射状态码，无法识别时返回 500
// xerrors.Error 的 Context 中 error_code / product / field 原样输出
func Error(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	statusCode := StatusOf(err)
	body := gin.H{
		"code":   statusCode,
		"msg":    err.Error(),
		"detail": http.StatusText(statusCode),
	}

	var xe *xerrors.Error
	var loc Locator
	switch {
	case errors.As(err, &xe):
		body["msg"] = xe.Message
		for _, key := range contextFields {
			if v, ok := xe.Context[key].(string); ok && v != "" {
				body[key] = v
			}
		}
	case errors.As(err, &loc):
		product, field := loc.Location()
		if product != "" {
			body["product"] = product
		}
		if field != "" {
			body["field"] = field
		}
	}

	c.JSON(statusCode, body)
}

var contextFields = []string{"error_code", "product", "field"}

// ErrorWithStatus 发送指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, msg string, detail string) {
	c.JSON(status, gin.H{
		"code":   status,
		"msg":    msg,
		"detail": detail,
	})
}

// StatusOf 错误对应的 HTTP 状态码
// xerrors.Error 的 Code 落在 4xx/5xx 时直接作为状态码
func StatusOf(err error) int {
	var xe *xerrors.Error
	var sp HTTPStatusProvider
	switch {
	case errors.As(err, &xe):
		if xe.Code >= 400 && xe.Code < 600 {
			return xe.Code
		}
		return xe.HTTPStatus()
	case errors.As(err, &sp):
		return sp.HTTPStatus()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499 // Client Closed Request
	default:
		return http.StatusInternalServerError
	}
}

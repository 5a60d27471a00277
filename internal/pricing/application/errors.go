package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/pkg/xerrors"
)

// 错误码：引擎错误沿用 ErrorKind 名称，其余为下列三种
const (
	CodeTimeout  = "TIMEOUT"
	CodeCanceled = "CANCELED"
	CodeInternal = "INTERNAL"
)

// StatusClientClosed 客户端提前断开
const StatusClientClosed = 499

// xerrors.Error.Context 中的字段名
const (
	ContextErrorCode = "error_code"
	ContextProduct   = "product"
	ContextField     = "field"
)

// ToXError 把定价错误转换为 xerrors.Error
// Code 取 HTTP 状态码：输入错误 400，数值求解失败 422，超时 504
func ToXError(err error) *xerrors.Error {
	if err == nil {
		return nil
	}
	var xe *xerrors.Error
	if errors.As(err, &xe) {
		return xe
	}

	var de *domain.Error
	if errors.As(err, &de) {
		code := http.StatusBadRequest
		if de.Kind == domain.KindNumericFailure {
			code = http.StatusUnprocessableEntity
		}
		return located(xerrors.New(xerrors.ErrInvalidArg, code, err.Error(), "", err), de.Kind.String(), de.Product, de.Field)
	}
	return wrapCoreError(err, "")
}

// wrapCoreError 非引擎错误附带产品上下文
func wrapCoreError(err error, product string) *xerrors.Error {
	msg := err.Error()
	if product != "" {
		msg = product + ": " + msg
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return located(xerrors.New(xerrors.ErrDeadlineExceeded, http.StatusGatewayTimeout, msg, "", err), CodeTimeout, product, "")
	case errors.Is(err, context.Canceled):
		return located(xerrors.New(xerrors.ErrUnknown, StatusClientClosed, msg, "", err), CodeCanceled, product, "")
	default:
		return located(xerrors.Internal(msg, err), CodeInternal, product, "")
	}
}

func located(xe *xerrors.Error, code, product, field string) *xerrors.Error {
	xe.WithContext(ContextErrorCode, code)
	if product != "" {
		xe.WithContext(ContextProduct, product)
	}
	if field != "" {
		xe.WithContext(ContextField, field)
	}
	return xe
}

// ErrorCode 错误码，见 ToXError
func ErrorCode(xe *xerrors.Error) string {
	code, _ := xe.Context[ContextErrorCode].(string)
	if code == "" {
		return CodeInternal
	}
	return code
}

func contextString(xe *xerrors.Error, key string) string {
	v, _ := xe.Context[key].(string)
	return v
}

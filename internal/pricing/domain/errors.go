package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 定价错误类别
type ErrorKind int

const (
	KindInvalidInput       ErrorKind = iota + 1 // 构造时违反不变量
	KindMissingArgument                         // 曲线/曲面查询缺少坐标
	KindUnsupportedVariant                      // 枚举值不在支持范围
	KindNumericFailure                          // 数值求解失败
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindMissingArgument:
		return "MISSING_ARGUMENT"
	case KindUnsupportedVariant:
		return "UNSUPPORTED_VARIANT"
	case KindNumericFailure:
		return "NUMERIC_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// 按类别匹配的哨兵错误，配合 errors.Is 使用
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrMissingArgument    = &Error{Kind: KindMissingArgument}
	ErrUnsupportedVariant = &Error{Kind: KindUnsupportedVariant}
	ErrNumericFailure     = &Error{Kind: KindNumericFailure}
)

// Error 定价引擎错误
// Product 与 Field 用于定位出错的产品与字段
type Error struct {
	Kind    ErrorKind
	Product string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Product != "" {
		msg += " [" + e.Product + "]"
	}
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 同类别即视为匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Field == ""
}

// WithProduct 返回带产品上下文的副本
func (e *Error) WithProduct(product string) *Error {
	cp := *e
	cp.Product = product
	return &cp
}

func (e *Error) withField(field string) *Error {
	e.Field = field
	return e
}

func invalidInput(field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: fmt.Sprintf(format, args...)}
}

func missingArgument(field, format string, args ...any) *Error {
	return &Error{Kind: KindMissingArgument, Field: field, Message: fmt.Sprintf(format, args...)}
}

func unsupportedVariant(field, value string) *Error {
	return &Error{Kind: KindUnsupportedVariant, Field: field, Message: fmt.Sprintf("unsupported value %q", value)}
}

func numericFailure(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindNumericFailure, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// InvalidInput 供上层构造校验错误
func InvalidInput(field, format string, args ...any) error {
	return invalidInput(field, format, args...)
}

// AttachProduct 给引擎错误补充产品信息，非引擎错误原样返回
func AttachProduct(err error, product string) error {
	var de *Error
	if errors.As(err, &de) && de.Product == "" {
		return de.WithProduct(product)
	}
	return err
}

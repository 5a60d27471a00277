package application

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

// newValidator 构造校验器，错误字段名取 json tag
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCommand 执行 struct tag 校验，第一个失败字段转换为 InvalidInput
func validateCommand(v *validator.Validate, cmd any) error {
	err := v.Struct(cmd)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.InvalidInput("", "%v", err)
	}
	fe := verrs[0]
	return domain.InvalidInput(fe.Field(), "%s", describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "one of " + fe.Field() + " or " + jsonName(fe.Param()) + " is required"
	case "excluded_with":
		return fe.Field() + " and " + jsonName(fe.Param()) + " are mutually exclusive"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

var fieldNames = map[string]string{
	"Rate":              "rate",
	"RateCurve":         "rate_curve",
	"Volatility":        "volatility",
	"VolatilitySurface": "volatility_surface",
	"ForeignRate":       "foreign_rate",
	"ForeignRateCurve":  "foreign_rate_curve",
}

// jsonName 把 tag 参数中的 Go 字段名换成对外字段名
func jsonName(goName string) string {
	if n, ok := fieldNames[goName]; ok {
		return n
	}
	return goName
}

package grpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wyfcoding/derivpricing/internal/pricing/application"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler gRPC 处理器
type Handler struct {
	app *application.PricingService
}

// NewHandler 创建 gRPC 处理器实例
func NewHandler(app *application.PricingService) *Handler {
	return &Handler{app: app}
}

// Price 单笔定价
func (h *Handler) Price(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	payload, err := json.Marshal(fields["params"].GetStructValue().AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.app.Price(ctx, fields["product"].GetStringValue(), fields["kind"].GetStringValue(), payload)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

// BatchPrice 批量定价
func (h *Handler) BatchPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := req.MarshalJSON()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var cmd application.BatchPriceCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed batch request: %v", err)
	}

	result, err := h.app.BatchPrice(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

// toStruct 经 JSON 转为 Struct，字段名与 HTTP 响应一致
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus 按 xerrors 类型映射状态码
// 数值求解失败 (422) 为 FailedPrecondition，客户端取消为 Canceled
func toStatus(err error) error {
	xe := application.ToXError(err)
	code := xe.GRPCCode()
	switch xe.Code {
	case http.StatusUnprocessableEntity:
		code = codes.FailedPrecondition
	case application.StatusClientClosed:
		code = codes.Canceled
	}
	return status.Error(code, xe.Message)
}

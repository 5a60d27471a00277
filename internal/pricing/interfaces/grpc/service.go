// Package grpc 定价服务的 gRPC 接口
// 请求与响应均为 google.protobuf.Struct，字段与 HTTP 接口的 JSON 一致
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "pricing.v1.PricingService"

// PricingServiceServer 服务端接口
type PricingServiceServer interface {
	// Price 单笔定价，请求字段 product、kind、params
	Price(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// BatchPrice 批量定价，请求字段 batch_id、items
	BatchPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPricingServiceServer 注册服务
func RegisterPricingServiceServer(s grpc.ServiceRegistrar, srv PricingServiceServer) {
	s.RegisterService(&PricingServiceDesc, srv)
}

func pricingPriceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PricingServiceServer).Price(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Price"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PricingServiceServer).Price(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func pricingBatchPriceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PricingServiceServer).BatchPrice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/BatchPrice"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PricingServiceServer).BatchPrice(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// PricingServiceDesc 服务描述
var PricingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Price", Handler: pricingPriceHandler},
		{MethodName: "BatchPrice", Handler: pricingBatchPriceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricing/v1/pricing.proto",
}

package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	bookingServiceName = "shareit.booking.v1.BookingService"

	methodGetBooking   = "/" + bookingServiceName + "/GetBooking"
	methodListBookings = "/" + bookingServiceName + "/ListBookings"
	methodSetApproval  = "/" + bookingServiceName + "/SetApproval"
	methodItemSummary  = "/" + bookingServiceName + "/ItemSummary"
)

// BookingServiceServer is the gRPC booking API. Messages are
// google.protobuf.Struct documents carrying the same fields as the HTTP API.
type BookingServiceServer interface {
	GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBookings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetApproval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ItemSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(BookingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBooking", Handler: unaryHandler(methodGetBooking, BookingServiceServer.GetBooking)},
		{MethodName: "ListBookings", Handler: unaryHandler(methodListBookings, BookingServiceServer.ListBookings)},
		{MethodName: "SetApproval", Handler: unaryHandler(methodSetApproval, BookingServiceServer.SetApproval)},
		{MethodName: "ItemSummary", Handler: unaryHandler(methodItemSummary, BookingServiceServer.ItemSummary)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shareit/booking/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&bookingServiceDesc, srv)
}

type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func (c *BookingServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) GetBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetBooking, in, opts...)
}

func (c *BookingServiceClient) ListBookings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListBookings, in, opts...)
}

func (c *BookingServiceClient) SetApproval(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSetApproval, in, opts...)
}

func (c *BookingServiceClient) ItemSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodItemSummary, in, opts...)
}

package api

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	roleBooker = "booker"
	roleOwner  = "owner"
)

// BookingGRPCService serves BookingServiceServer on top of the booking
// service.
type BookingGRPCService struct {
	bookings domain.BookingService
	actors   *ActorResolver
	writes   *WriteLimiter
	logger   *zerolog.Logger
}

func NewBookingGRPCService(bookings domain.BookingService, actors *ActorResolver, writes *WriteLimiter, logger *zerolog.Logger) *BookingGRPCService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingGRPCService{
		bookings: bookings,
		actors:   actors,
		writes:   writes,
		logger:   logger,
	}
}

func (s *BookingGRPCService) actor(ctx context.Context) (int64, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	return s.actors.Resolve(first(md.Get(s.actors.Header())), first(md.Get("authorization")))
}

func (s *BookingGRPCService) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	bookingID, err := int64Field(req, "booking_id")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}

	booking, err := s.bookings.GetBooking(ctx, actorID, bookingID)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return s.reply(bookingStruct(booking))
}

func (s *BookingGRPCService) ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}

	from, err := optionalIntField(req, "from")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	size, err := optionalIntField(req, "size")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	page, err := newPage(from, size)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}

	state := stateOrDefault(stringField(req, "state"))
	list := s.bookings.ListByRequester
	switch role := strings.ToLower(strings.TrimSpace(stringField(req, "role"))); role {
	case "", roleBooker:
	case roleOwner:
		list = s.bookings.ListByOwner
	default:
		return nil, grpcError(s.logger, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, role))
	}

	bookings, err := list(ctx, actorID, state)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return s.reply(bookingsStruct(page.Apply(bookings)))
}

func (s *BookingGRPCService) SetApproval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	bookingID, err := int64Field(req, "booking_id")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	approved, err := boolField(req, "approved")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	if !s.writes.Allow(ctx, actorID) {
		return nil, grpcError(s.logger, errRateLimited)
	}

	booking, err := s.bookings.SetApproval(ctx, actorID, bookingID, approved)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return s.reply(bookingStruct(booking))
}

func (s *BookingGRPCService) ItemSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	itemID, err := int64Field(req, "item_id")
	if err != nil {
		return nil, grpcError(s.logger, err)
	}

	summary, err := s.bookings.ItemSummary(ctx, actorID, itemID)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return s.reply(itemSummaryStruct(summary))
}

func (s *BookingGRPCService) reply(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, grpcError(s.logger, fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

var _ BookingServiceServer = (*BookingGRPCService)(nil)

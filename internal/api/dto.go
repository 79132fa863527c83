package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"google.golang.org/protobuf/types/known/structpb"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
}

type updateItemRequest struct {
	Available *bool `json:"available"`
}

type createBookingRequest struct {
	ItemID int64     `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

func (r createBookingRequest) validate() error {
	if r.ItemID <= 0 {
		return fmt.Errorf("%w: item_id is required", domain.ErrInvalidArgument)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", domain.ErrInvalidArgument)
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseBool(name, raw string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidArgument, name)
	}
	return v, nil
}

// parsePage reads from/size; absent values mean the whole listing.
func parsePage(rawFrom, rawSize string) (models.Page, error) {
	var from, size int
	var err error
	if rawFrom = strings.TrimSpace(rawFrom); rawFrom != "" {
		if from, err = strconv.Atoi(rawFrom); err != nil {
			return models.Page{}, fmt.Errorf("%w: invalid from %q", domain.ErrInvalidArgument, rawFrom)
		}
	}
	if rawSize = strings.TrimSpace(rawSize); rawSize != "" {
		if size, err = strconv.Atoi(rawSize); err != nil {
			return models.Page{}, fmt.Errorf("%w: invalid size %q", domain.ErrInvalidArgument, rawSize)
		}
	}
	return newPage(from, size)
}

func newPage(from, size int) (models.Page, error) {
	page := models.Page{From: from, Size: size}
	if err := page.Validate(); err != nil {
		return models.Page{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return page, nil
}

func stateOrDefault(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return models.DefaultListState
	}
	return raw
}

func bookingFields(b *models.Booking) map[string]any {
	return map[string]any{
		"id":        b.ID,
		"item_id":   b.ItemID,
		"booker_id": b.BookerID,
		"start":     b.Start.UTC().Format(time.RFC3339Nano),
		"end":       b.End.UTC().Format(time.RFC3339Nano),
		"status":    string(b.Status),
		"version":   b.Version,
	}
}

func itemFields(it *models.Item) map[string]any {
	return map[string]any{
		"id":          it.ID,
		"owner_id":    it.OwnerID,
		"name":        it.Name,
		"description": it.Description,
		"available":   it.Available,
	}
}

func bookingStruct(b *models.Booking) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"booking": bookingFields(b)})
}

func bookingsStruct(bookings []*models.Booking) (*structpb.Struct, error) {
	list := make([]any, 0, len(bookings))
	for _, b := range bookings {
		list = append(list, bookingFields(b))
	}
	return structpb.NewStruct(map[string]any{"bookings": list})
}

func itemSummaryStruct(summary *models.ItemSummary) (*structpb.Struct, error) {
	fields := map[string]any{"item": itemFields(summary.Item)}
	if summary.LastBooking != nil {
		fields["last_booking"] = bookingFields(summary.LastBooking)
	}
	if summary.NextBooking != nil {
		fields["next_booking"] = bookingFields(summary.NextBooking)
	}
	return structpb.NewStruct(fields)
}

// maxExactInt is the largest integer a JSON number holds without rounding.
const maxExactInt = 1 << 53

func int64Field(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidArgument, name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if math.IsNaN(n) || math.Abs(n) > maxExactInt || n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidArgument, name)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidArgument, name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidArgument, name)
	}
}

func boolField(req *structpb.Struct, name string) (bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return false, fmt.Errorf("%w: %s is required", domain.ErrInvalidArgument, name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return kind.BoolValue, nil
	case *structpb.Value_StringValue:
		return parseBool(name, kind.StringValue)
	default:
		return false, fmt.Errorf("%w: %s must be a bool", domain.ErrInvalidArgument, name)
	}
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// optionalIntField returns 0 when name is absent.
func optionalIntField(req *structpb.Struct, name string) (int, error) {
	if _, ok := req.GetFields()[name]; !ok {
		return 0, nil
	}
	n, err := int64Field(req, name)
	return int(n), err
}

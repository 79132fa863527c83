package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"write_limiter": s.writes.Mode(),
	})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email}
	if err := s.svc.Users.CreateUser(r.Context(), user); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	user, err := s.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request, actorID int64) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if req.Available == nil {
		writeServiceError(w, s.logger, fmt.Errorf("%w: available is required", domain.ErrInvalidArgument))
		return
	}

	item := &models.Item{
		OwnerID:     actorID,
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
	}
	if err := s.svc.Items.CreateItem(r.Context(), item); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request, actorID int64) {
	items, err := s.svc.Items.GetItemsByOwner(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request, actorID int64) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	summary, err := s.svc.Bookings.ItemSummary(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request, actorID int64) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if req.Available == nil {
		writeServiceError(w, s.logger, fmt.Errorf("%w: available is required", domain.ErrInvalidArgument))
		return
	}

	item, err := s.svc.Items.SetItemAvailable(r.Context(), actorID, id, *req.Available)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request, actorID int64) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	booking, err := s.svc.Bookings.CreateBooking(r.Context(), actorID, req.ItemID, req.Start, req.End)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleApproveBooking(w http.ResponseWriter, r *http.Request, actorID int64) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	approved, err := parseBool("approved", r.URL.Query().Get("approved"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	booking, err := s.svc.Bookings.SetApproval(r.Context(), actorID, id, approved)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request, actorID int64) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	booking, err := s.svc.Bookings.GetBooking(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request, actorID int64) {
	s.listBookings(w, r, actorID, s.svc.Bookings.ListByRequester)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request, actorID int64) {
	s.listBookings(w, r, actorID, s.svc.Bookings.ListByOwner)
}

type listFunc func(ctx context.Context, userID int64, state string) ([]*models.Booking, error)

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, actorID int64, list listFunc) {
	query := r.URL.Query()
	page, err := parsePage(query.Get("from"), query.Get("size"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	bookings, err := list(r.Context(), actorID, stateOrDefault(query.Get("state")))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page.Apply(bookings))
}

func (s *HTTPServer) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request, actorID int64) {
	state := stateOrDefault(r.URL.Query().Get("state"))
	bookings, err := s.svc.Bookings.ListByOwner(r.Context(), actorID, state)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	parsed, _ := models.ParseBookingState(state)
	now := s.clock.Now()
	fileName := fmt.Sprintf("bookings_%s_%s.xlsx", strings.ToLower(string(parsed)), now.UTC().Format("2006-01-02"))

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, parsed, now); err != nil {
		writeServiceError(w, s.logger, fmt.Errorf("export bookings: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/featureflags"
	"github.com/yourorg/orchestrate/internal/security/middleware"
	"github.com/yourorg/orchestrate/internal/service"
)

// guestBookingsFlag gates unauthenticated guest bookings. Off by
// default; deployments with a lobby kiosk turn it on.
const guestBookingsFlag = "guest_bookings"

// BookingHandler handles the booking and room endpoints.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *slog.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookings *service.BookingService, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{bookings: bookings, logger: logger}
}

type createBookingRequest struct {
	RoomID      string    `json:"roomId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Attendees   *string   `json:"attendees"`
	GuestName   string    `json:"guestName"`
	GuestEmail  string    `json:"guestEmail"`
	IsExternal  bool      `json:"isExternal"`
}

// Create handles POST /api/bookings. Mounted behind optional auth:
// guest bookings carry isExternal and need no principal when the guest
// bookings flag is on.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if req.IsExternal && principal == nil && !featureflags.Enabled(guestBookingsFlag) {
		writeError(w, h.logger, domain.Unauthorizedf("guest bookings are disabled"))
		return
	}

	booking, err := h.bookings.Create(r.Context(), principal, service.CreateBookingInput{
		RoomID:      req.RoomID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
		Attendees:   req.Attendees,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		IsExternal:  req.IsExternal,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBookingView(booking))
}

// List handles GET /api/bookings. Mounted behind optional auth:
// anonymous callers and PUBLIC-role accounts get the public projection,
// other authenticated callers get the role-masked view.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if principal == nil || principal.Role == domain.RolePublic {
		public, err := h.bookings.ListPublic(r.Context(), day)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, public)
		return
	}

	bookings, err := h.bookings.List(r.Context(), principal, day)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingViews(bookings))
}

// ListPublic handles GET /api/bookings/public, the anonymous lobby
// display feed.
func (h *BookingHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	public, err := h.bookings.ListPublic(r.Context(), day)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, public)
}

// Update handles PUT /api/bookings/{id}.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBookingInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	booking, err := h.bookings.Update(r.Context(), principal, r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(booking))
}

// Delete handles DELETE /api/bookings/{id}.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.bookings.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking deleted"})
}

// ListRooms handles GET /api/bookings/rooms.
func (h *BookingHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.bookings.ListRooms(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoomViews(rooms))
}

// parseDay parses the optional ?date=YYYY-MM-DD filter.
func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, domain.Validationf("invalid date, expected YYYY-MM-DD")
	}
	return &day, nil
}

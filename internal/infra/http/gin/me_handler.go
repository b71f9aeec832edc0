package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hotelbook/internal/app/dto"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/policies"
	"hotelbook/internal/app/queries"
)

const maxIDPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

type MeHandler struct {
	Queries queries.Bus
	Photos  policies.ObjectStore
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	guest, _ := currentActor(c)
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListGuestBookingsQuery{GuestID: guest.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) GetBooking(c *gin.Context) {
	guest, _ := currentActor(c)
	q := bookingapp.GetGuestBookingQuery{BookingID: c.Param("id"), GuestID: guest.ID}
	result, err := queries.Ask[bookingapp.GetGuestBookingQuery, dto.BookingDTO](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) Transactions(c *gin.Context) {
	guest, _ := currentActor(c)
	result, err := queries.Ask[bookingapp.GuestTransactionsQuery, dto.WalletStatement](c.Request.Context(), h.Queries, bookingapp.GuestTransactionsQuery{GuestID: guest.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadIDPhoto stores an identity document; the returned URL goes into guest_details.id_photos.
func (h MeHandler) UploadIDPhoto(c *gin.Context) {
	guest, _ := currentActor(c)
	if h.Photos == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage unavailable"})
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, err)
		return
	}
	if file.Size > maxIDPhotoBytes {
		badRequest(c, errors.New("photo exceeds 5MB"))
		return
	}
	contentType := file.Header.Get("Content-Type")
	if _, ok := allowedPhotoTypes[contentType]; !ok {
		badRequest(c, errors.New("photo must be jpeg, png, webp or pdf"))
		return
	}
	body, err := file.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer body.Close()

	key := "id-photos/" + guest.ID + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	url, err := h.Photos.Upload(c.Request.Context(), key, body, file.Size, contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("id photo upload failed", "guest_id", guest.ID, "error", err)
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "photo upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

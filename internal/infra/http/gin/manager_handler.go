package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/queries"
)

type ManagerHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ManagerHandler) Reservations(c *gin.Context) {
	manager, _ := currentActor(c)
	result, err := queries.Ask[bookingapp.ListReservationsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListReservationsQuery{ManagerID: manager.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) Reservation(c *gin.Context) {
	manager, _ := currentActor(c)
	q := bookingapp.GetReservationQuery{BookingID: c.Param("id"), ManagerID: manager.ID}
	result, err := queries.Ask[bookingapp.GetReservationQuery, dto.BookingDTO](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) Transactions(c *gin.Context) {
	manager, _ := currentActor(c)
	result, err := queries.Ask[bookingapp.ManagerTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries, bookingapp.ManagerTransactionsQuery{ManagerID: manager.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) Approve(c *gin.Context) {
	manager, _ := currentActor(c)
	cmd := bookingapp.ApproveCancellationCommand{BookingID: c.Param("bookingId"), ManagerID: manager.ID}
	result, err := commands.Dispatch[bookingapp.ApproveCancellationCommand, *bookingapp.ApproveCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) Reject(c *gin.Context) {
	manager, _ := currentActor(c)
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.RejectCancellationCommand{
		BookingID: c.Param("bookingId"),
		ManagerID: manager.ID,
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.RejectCancellationCommand, *bookingapp.RejectCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelbook/internal/app/dto"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/queries"
)

type AdminHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AdminHandler) Cancellations(c *gin.Context) {
	result, err := queries.Ask[bookingapp.ListCancellationRequestsQuery, dto.CancellationCollection](c.Request.Context(), h.Queries, bookingapp.ListCancellationRequestsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Transactions(c *gin.Context) {
	result, err := queries.Ask[bookingapp.AdminTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries, bookingapp.AdminTransactionsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package dto

import (
	"time"

	domainaccount "hotelbook/internal/domain/account"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
)

// TransactionDTO is one row of an admin or manager revenue statement.
type TransactionDTO struct {
	BookingID     string           `json:"booking_id"`
	Property      PropertySnapshot `json:"property"`
	GuestName     string           `json:"guest_name"`
	TransactionID string           `json:"transaction_id"`
	Method        string           `json:"method"`
	Status        string           `json:"status"`
	Total         MoneyDTO         `json:"total"`
	Revenue       MoneyDTO         `json:"revenue"`
	Date          time.Time        `json:"date"`
}

type TransactionCollection struct {
	Items   []TransactionDTO `json:"items"`
	Revenue MoneyDTO         `json:"revenue"`
}

type WalletEntryDTO struct {
	Key       string    `json:"key"`
	Delta     MoneyDTO  `json:"delta"`
	BookingID string    `json:"booking_id,omitempty"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

type WalletStatement struct {
	Balance MoneyDTO         `json:"balance"`
	Entries []WalletEntryDTO `json:"entries"`
}

// RevenueFor picks the share of a booking a statement reports.
type RevenueFor func(b *domainbooking.Booking) MoneyDTO

func MapTransaction(b *domainbooking.Booking, prop *domainproperty.Property, revenue RevenueFor) TransactionDTO {
	date := b.Payment.PaidAt
	if date.IsZero() {
		date = b.UpdatedAt
	}
	return TransactionDTO{
		BookingID:     string(b.ID),
		Property:      MapPropertySnapshot(b.PropertyID, prop),
		GuestName:     b.Guest.Name,
		TransactionID: b.Payment.TransactionID,
		Method:        string(b.Payment.Method),
		Status:        string(b.Status),
		Total:         MapMoney(b.TotalPrice),
		Revenue:       revenue(b),
		Date:          date,
	}
}

func MapWalletEntry(e domainaccount.Entry) WalletEntryDTO {
	return WalletEntryDTO{
		Key:       e.Key,
		Delta:     MapMoney(e.Delta),
		BookingID: e.BookingID,
		Reason:    e.Reason,
		At:        e.At,
	}
}

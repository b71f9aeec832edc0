package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/money"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// transientConflict reports a write conflict aborted by the server inside a
// transaction; a concurrent writer touched the same document.
func transientConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// storeErr marks a driver failure as a dependency error. Errors that already
// carry a kind, such as domain sentinels, pass through unchanged.
func storeErr(op string, err error) error {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Dependency(op, err)
}

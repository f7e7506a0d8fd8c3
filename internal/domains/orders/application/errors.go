package application

import (
	"errors"
	"fmt"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrPaymentProvider signals the external charge request failed; the
	// checkout unit has been rolled back.
	ErrPaymentProvider = errors.New("payment provider request failed")
	// ErrForbidden signals the caller does not own the targeted order.
	ErrForbidden = errors.New("order does not belong to caller")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrNegativeTotal) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

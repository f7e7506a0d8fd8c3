package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[Status][]Status{
		StatusPending:   {StatusPaid, StatusCancelled},
		StatusPaid:      {StatusShipped, StatusCancelled},
		StatusShipped:   {StatusDelivered},
		StatusDelivered: {},
		StatusCancelled: {},
	}
	for from, targets := range allowed {
		ok := map[Status]bool{}
		for _, target := range targets {
			ok[target] = true
		}
		for _, target := range all {
			order := &Order{Status: from}
			err := order.Transition(target)
			if ok[target] {
				require.NoError(t, err, "%s -> %s should be allowed", from, target)
				require.Equal(t, target, order.Status)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be rejected", from, target)
				require.Equal(t, from, order.Status, "rejected transition must not mutate status")
			}
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	order := &Order{Status: StatusPending}
	require.ErrorIs(t, order.Transition(Status("refunded")), ErrInvalidStatus)
}

func TestAtOrPast(t *testing.T) {
	require.True(t, (&Order{Status: StatusPaid}).AtOrPast(StatusPaid))
	require.True(t, (&Order{Status: StatusShipped}).AtOrPast(StatusPaid))
	require.True(t, (&Order{Status: StatusDelivered}).AtOrPast(StatusPaid))
	require.False(t, (&Order{Status: StatusPending}).AtOrPast(StatusPaid))
	require.False(t, (&Order{Status: StatusCancelled}).AtOrPast(StatusPaid))
	require.True(t, (&Order{Status: StatusCancelled}).AtOrPast(StatusCancelled))
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder(1, decimal.NewFromInt(-1), nil)
	require.ErrorIs(t, err, ErrNegativeTotal)

	_, err = NewOrder(1, decimal.NewFromInt(10), []OrderItem{{ProductID: 1, Quantity: 0}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder(1, decimal.NewFromInt(10), []OrderItem{{ProductID: 0, Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidProductID)

	order, err := NewOrder(7, decimal.NewFromInt(10), []OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, int64(7), order.UserID)
}

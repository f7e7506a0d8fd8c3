package commerceserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	catalogports "github.com/ydbloom/commerce-api/internal/domains/catalog/ports"
	ordersapp "github.com/ydbloom/commerce-api/internal/domains/orders/application"
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	apierrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

// orderResponder maps order core errors to RFC 7807 problems, falling back
// to an internal error for anything the mapper does not recognize.
var orderResponder = apierrors.NewChainedResponder("", mapOrderServiceError)

// mapOrderServiceError is the ErrorMapper for the order service surface.
func mapOrderServiceError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersports.ErrOrderNotFound),
		errors.Is(err, ordersports.ErrCartNotFound),
		errors.Is(err, ordersports.ErrItemNotFound),
		errors.Is(err, catalogports.ErrProductNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersdomain.ErrEmptyCart),
		errors.Is(err, ordersapp.ErrInvalidInput),
		errors.Is(err, ordersdomain.ErrInvalidStatus):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, catalogdomain.ErrInsufficientStock),
		errors.Is(err, ordersdomain.ErrInvalidTransition):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrPaymentProvider):
		return apierrors.ErrBadGateway.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// respondProblem sends a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError preserves plain status call sites while returning RFC 7807 responses.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	case http.StatusForbidden:
		problem = apierrors.ErrForbidden.WithDetail(err.Error())
	case http.StatusConflict:
		problem = apierrors.ErrConflict.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondOrderServiceError translates order core errors into RFC 7807 responses.
func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	orderResponder.RespondError(c, err)
}

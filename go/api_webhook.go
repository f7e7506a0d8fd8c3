package commerceserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentsapp "github.com/ydbloom/commerce-api/internal/domains/payments/application"
	paymentsdomain "github.com/ydbloom/commerce-api/internal/domains/payments/domain"
	apierrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

// SignatureHeader is the request header carrying the provider signature.
const SignatureHeader = "Webhook-Signature"

// maxWebhookBody caps how much payload is read from the provider.
const maxWebhookBody = 1 << 20

// WebhookAPI receives asynchronous payment events from the provider.
type WebhookAPI struct {
	handler *paymentsapp.Handler
}

// NewWebhookAPI creates a WebhookAPI backed by the payments handler.
func NewWebhookAPI(handler *paymentsapp.Handler) WebhookAPI {
	return WebhookAPI{handler: handler}
}

// Post /v1/webhooks/payment
// Verify, parse, and apply one provider event
func (api *WebhookAPI) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	ack, err := api.handler.HandleEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, paymentsdomain.ErrInvalidSignature):
			respondProblem(c, apierrors.ErrBadRequest.WithDetail("webhook signature verification failed"))
		case errors.Is(err, paymentsdomain.ErrMalformedPayload):
			respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		default:
			respondProblem(c, apierrors.ErrInternal.WithDetail(err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, ack)
}

package commerceserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	ordersapp "github.com/ydbloom/commerce-api/internal/domains/orders/application"
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	apierrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/orders/7", nil)
	return c, recorder
}

func decodeProblem(t *testing.T, recorder *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &problem))
	return problem
}

func TestRespondOrderServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "order not found maps to 404",
			err:        ordersports.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
		{
			name:       "empty cart maps to 400",
			err:        fmt.Errorf("checkout: %w", ordersdomain.ErrEmptyCart),
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeBadRequest,
		},
		{
			name:       "insufficient stock maps to 409",
			err:        fmt.Errorf("%w: not enough stock for Hat", catalogdomain.ErrInsufficientStock),
			wantStatus: http.StatusConflict,
			wantType:   apierrors.TypeConflict,
		},
		{
			name:       "foreign order maps to 403",
			err:        ordersapp.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantType:   apierrors.TypeForbidden,
		},
		{
			name:       "provider failure maps to 502",
			err:        fmt.Errorf("%w: connection refused", ordersapp.ErrPaymentProvider),
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeBadGateway,
		},
		{
			name:       "unmapped error falls back to 500",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := newTestContext(t)

			respondOrderServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, apierrors.ContentTypeProblemJSON, recorder.Header().Get("Content-Type"))
			problem := decodeProblem(t, recorder)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/v1/orders/7", problem.Instance)
		})
	}
}

func TestRespondOrderServiceErrorNilIsNoop(t *testing.T) {
	c, recorder := newTestContext(t)

	respondOrderServiceError(c, nil)

	assert.Empty(t, recorder.Body.Bytes())
}

func TestNewValidationProblemCarriesFieldErrors(t *testing.T) {
	c, recorder := newTestContext(t)

	respondProblem(c, apierrors.NewValidationProblem(map[string]string{"status": "unknown status"}))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	problem := decodeProblem(t, recorder)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	fields, ok := problem.Extensions["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unknown status", fields["status"])
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/storage"
	"github.com/kimconnect/internship-service/internal/utils"
	"github.com/kimconnect/internship-service/internal/validator"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", validator.NewFieldError("title", "is required", nil, "required"), http.StatusBadRequest, CodeValidation},
		{"upload", fmt.Errorf("%w: text/plain", storage.ErrUnsupportedType), http.StatusBadRequest, CodeValidation},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"revoked", services.ErrSessionRevoked, http.StatusUnauthorized, CodeUnauthenticated},
		{"permission", services.NewPermissionError(1, 2, "opportunity", "update", "not the owner"), http.StatusForbidden, CodeForbidden},
		{"inactive", &services.AccountNotActiveError{Status: models.UserStatusBanned}, http.StatusForbidden, CodeAccountNotActive},
		{"not found", fmt.Errorf("lookup: %w", services.ErrOpportunityNotFound), http.StatusNotFound, CodeNotFound},
		{"conflict", services.ErrApplicationExists, http.StatusConflict, CodeConflict},
		{"transition", &services.TransitionError{From: models.ApplicationRejected, To: models.ApplicationAccepted}, http.StatusConflict, CodeInvalidTransition},
		{"business rule", services.NewBusinessRuleError("application_deadline", "deadline passed", nil), http.StatusUnprocessableEntity, CodeBusinessRule},
		{"rate limited", services.ErrTooManyRequests, http.StatusTooManyRequests, CodeRateLimited},
		{"internal", fmt.Errorf("%w: broken relation", services.ErrInternal), http.StatusInternalServerError, CodeInternal},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
			assert.True(t, c.IsAborted())
		})
	}
}

func TestHandleServiceError_InternalDetailsStayPrivate(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleServiceError(c, errors.New("pq: password authentication failed for user app"))

	assert.NotContains(t, rec.Body.String(), "password authentication")
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRedisLimiter(client)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.False(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "other", 2, time.Minute))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))

	// Unreachable Redis fails open
	mr.Close()
	assert.True(t, limiter.Allow(ctx, "k", 1, time.Minute))
	assert.True(t, limiter.Allow(ctx, "k", 1, time.Minute))

	var disabled *RedisLimiter
	require.Nil(t, NewRedisLimiter(nil))
	assert.True(t, disabled.Allow(ctx, "k", 1, time.Minute))
}

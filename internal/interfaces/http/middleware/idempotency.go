package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/crm/backend/internal/infrastructure/idempotency"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength  = 255
	idempotencyStoreTimeout  = 2 * time.Second
)

// IdempotencyStore persists the outcome of keyed write requests
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*idempotency.Record, bool, error)
	Complete(ctx context.Context, key string, record idempotency.Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency replays the stored response of a POST request retried with
// the same Idempotency-Key. Keys are scoped to the caller and the active
// company. Server errors release the key so the client can retry.
// Store failures let the request through unprotected.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = idempotency.DefaultTTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidIdempotencyKey,
				"Idempotency-Key must be at most 255 characters",
				requestIDOf(c),
			))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", requestIDOf(c)))
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Failed to read request body", requestIDOf(c)))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		scoped := idempotencyScope(c) + ":" + key
		fingerprint := requestFingerprint(c.Request.Method, c.Request.URL.Path, body)

		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
		existing, reserved, err := cfg.Store.Reserve(storeCtx, scoped, fingerprint, cfg.TTL)
		cancel()
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request without it",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.Next()
			return
		}

		if !reserved {
			replayOrReject(c, existing, fingerprint)
			return
		}

		// Anything short of a stored response, a panic included, frees the key.
		completed := false
		defer func() {
			if completed {
				return
			}
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
			defer cancel()
			if err := cfg.Store.Release(releaseCtx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		recorder := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			return
		}

		storeCtx, cancel = context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
		defer cancel()
		record := idempotency.Record{
			Fingerprint: fingerprint,
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := cfg.Store.Complete(storeCtx, scoped, record, cfg.TTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
			return
		}
		completed = true
	}
}

func replayOrReject(c *gin.Context, existing *idempotency.Record, fingerprint string) {
	switch {
	case existing == nil:
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is in progress", requestIDOf(c)))
	case existing.Fingerprint != fingerprint:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeIdempotencyKeyReused, "Idempotency-Key was already used for a different request", requestIDOf(c)))
	case !existing.Completed:
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is in progress", requestIDOf(c)))
	default:
		c.Header(IdempotentReplayedHeader, "true")
		contentType := existing.ContentType
		if contentType == "" {
			contentType = gin.MIMEJSON
		}
		c.Data(existing.Status, contentType, existing.Body)
		c.Abort()
	}
}

// idempotencyScope keeps keys of different callers and companies apart
func idempotencyScope(c *gin.Context) string {
	principal := GetPrincipal(c)
	if principal == nil {
		return "anonymous"
	}
	scope := "u" + strconv.FormatInt(principal.UserID(), 10)
	if keyID, ok := principal.APIKeyID(); ok {
		scope += ":k" + strconv.FormatInt(keyID, 10)
	}
	if tenantID, ok := principal.TenantID(); ok {
		scope += ":t" + strconv.FormatInt(tenantID, 10)
	}
	return scope
}

func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter keeps a copy of the response body
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

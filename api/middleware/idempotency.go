package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/responses"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	pkgredis "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	pendingIdempotencyTTL  = 2 * time.Minute
)

// idempotentRoutes maps "METHOD path-glob" to how long a response is replayable.
// Globs match either the chi route pattern or the concrete request path.
var idempotentRoutes = map[string]time.Duration{
	"POST /api/v1/referrals":                  defaultIdempotencyTTL,
	"POST /api/v1/trust/*/refresh":            defaultIdempotencyTTL,
	"POST /api/admin/v1/referrals/*/activate": criticalIdempotencyTTL,
	"POST /api/admin/v1/referrals/earnings":   criticalIdempotencyTTL,
	"POST /api/admin/v1/referrals/auto-share": criticalIdempotencyTTL,
}

// storedResponse is what a key resolves to in redis. Pending marks a request
// that is still being handled.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// Idempotency makes ledger-mutating routes safe to retry: the first non-5xx response
// for an Idempotency-Key is stored and replayed for repeats with the same body.
// A repeat while the first request is in flight is rejected.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := g.serve(w, r, next, ttl); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
			}
		})
	}
}

func (g idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) error {
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ctx := r.Context()
	key := g.store.IdempotencyKey(requestScope(r), clientKey)
	hash := requestHash(r, body)

	claimed, err := g.claim(ctx, key, hash)
	if err != nil {
		return err
	}
	if !claimed {
		prior, err := g.load(ctx, key)
		switch {
		case err != nil:
			return err
		case prior == nil:
			return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key expired during request, retry")
		case prior.RequestHash != hash:
			return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
		case prior.Pending:
			return pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress")
		}
		replay(w, prior)
		return nil
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	g.finish(ctx, key, hash, capture, ttl)
	return nil
}

func (g idempotencyGuard) claim(ctx context.Context, key, hash string) (bool, error) {
	marker, _ := json.Marshal(storedResponse{Pending: true, RequestHash: hash})
	ok, err := g.store.SetNX(ctx, key, string(marker), pendingIdempotencyTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

func (g idempotencyGuard) load(ctx context.Context, key string) (*storedResponse, error) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record")
	}
	var rec storedResponse
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

// finish swaps the pending marker for the captured response. 5xx responses
// release the key so the client can retry.
func (g idempotencyGuard) finish(ctx context.Context, key, hash string, capture *responseCapture, ttl time.Duration) {
	if err := g.store.Del(ctx, key); err != nil {
		g.logError(ctx, "idempotency.release_failed", err)
		return
	}
	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		return
	}
	payload, err := json.Marshal(storedResponse{
		RequestHash: hash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err == nil {
		_, err = g.store.SetNX(ctx, key, string(payload), ttl)
	}
	if err != nil {
		g.logError(ctx, "idempotency.persist_failed", err)
	}
}

func (g idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func replay(w http.ResponseWriter, rec *storedResponse) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

// requestScope keeps keys from different callers or routes apart.
func requestScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), string(RoleFromContext(r.Context())), r.Method, r.URL.Path}, "|")
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + " " + r.URL.Path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		// group middleware sees a partial pattern ending in "/*"
		if pattern := ctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	for route, ttl := range idempotentRoutes {
		m, glob, _ := strings.Cut(route, " ")
		if m != method {
			continue
		}
		if ok, _ := path.Match(glob, pattern); ok {
			return ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

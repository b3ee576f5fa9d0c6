package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

type apiEnvelope struct {
	Ok    bool `json:"ok"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fakeActorLookup struct {
	findActiveByIDFn func(ctx context.Context, id string) (*actor.Actor, error)
}

func (f *fakeActorLookup) FindActiveByID(ctx context.Context, id string) (*actor.Actor, error) {
	return f.findActiveByIDFn(ctx, id)
}

type fakeRBAC struct {
	enforceFn func(req domain.EnforceRequest) (bool, error)
}

func (f *fakeRBAC) Enforce(req domain.EnforceRequest) (bool, error) {
	return f.enforceFn(req)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return s
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"employee_id": c.GetString("employee_id"),
			"role":        c.GetString("role"),
		})
	})...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	employeeID := uuid.New()
	lookup := &fakeActorLookup{
		findActiveByIDFn: func(_ context.Context, id string) (*actor.Actor, error) {
			if id != employeeID.String() {
				return nil, errors.New("record not found")
			}
			return &actor.Actor{ID: employeeID, Role: actor.RoleManager, IsActive: true}, nil
		},
	}

	t.Run("valid token sets identity from the employee record", func(t *testing.T) {
		r := newRouter(middleware.AuthMiddleware(testSecret, lookup))
		token := signToken(t, jwt.MapClaims{
			"employee_id": employeeID.String(),
			"role":        "hr_admin",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, employeeID.String(), body["employee_id"])
		assert.Equal(t, "manager", body["role"])
	})

	t.Run("missing token", func(t *testing.T) {
		r := newRouter(middleware.AuthMiddleware(testSecret, lookup))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		r := newRouter(middleware.AuthMiddleware(testSecret, lookup))
		token := signToken(t, jwt.MapClaims{
			"employee_id": employeeID.String(),
			"exp":         time.Now().Add(-time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var env apiEnvelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, middleware.ErrTokenExpired.Message, env.Error.Message)
	})

	t.Run("unknown or inactive employee", func(t *testing.T) {
		r := newRouter(middleware.AuthMiddleware(testSecret, lookup))
		token := signToken(t, jwt.MapClaims{"employee_id": uuid.NewString()})
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		r := newRouter(middleware.AuthMiddleware("other-secret", lookup))
		token := signToken(t, jwt.MapClaims{"employee_id": employeeID.String()})
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func withIdentity(employeeID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("employee_id", employeeID)
		c.Set("role", role)
		c.Next()
	}
}

func TestRBACAuthorize(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		svc := &fakeRBAC{enforceFn: func(req domain.EnforceRequest) (bool, error) {
			assert.Equal(t, "manager", req.Role)
			assert.Equal(t, "leave", req.Resource)
			assert.Equal(t, "approve", req.Action)
			return true, nil
		}}
		r := newRouter(withIdentity("e1", "manager"), middleware.RBACAuthorize(svc, "leave", "approve"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("denied", func(t *testing.T) {
		svc := &fakeRBAC{enforceFn: func(domain.EnforceRequest) (bool, error) { return false, nil }}
		r := newRouter(withIdentity("e1", "employee"), middleware.RBACAuthorize(svc, "leave", "approve"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("enforcer error", func(t *testing.T) {
		svc := &fakeRBAC{enforceFn: func(domain.EnforceRequest) (bool, error) { return false, errors.New("boom") }}
		r := newRouter(withIdentity("e1", "employee"), middleware.RBACAuthorize(svc, "leave", "approve"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("no identity", func(t *testing.T) {
		svc := &fakeRBAC{enforceFn: func(domain.EnforceRequest) (bool, error) { return true, nil }}
		r := newRouter(middleware.RBACAuthorize(svc, "leave", "approve"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRateLimitByUser(t *testing.T) {
	r := newRouter(withIdentity("e1", "employee"), middleware.RateLimitByUser(rate.Limit(0.001), 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestID(t *testing.T) {
	r := newRouter(middleware.RequestID())

	t.Run("echoes the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "rid-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "rid-1", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 100))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
		assert.NoError(t, err)
	})
}

func TestIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newPostRouter := func(mw gin.HandlerFunc, calls *int) *gin.Engine {
		r := gin.New()
		r.POST("/chat", withIdentity("e1", "employee"), mw, func(c *gin.Context) {
			*calls++
			c.JSON(http.StatusOK, gin.H{"n": *calls})
		})
		return r
	}

	t.Run("stored response is replayed", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		key := middleware.GetIdempotencyKey("/chat", "e1", "k1")
		mock.ExpectGet(key).SetVal(`{"status":201,"body":{"n":7}}`)

		calls := 0
		r := newPostRouter(middleware.Idempotency(rdb, zap.NewNop()), &calls)
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set(middleware.IdempotencyHeader, "k1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"n":7}`, w.Body.String())
		assert.Equal(t, 0, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		key := middleware.GetIdempotencyKey("/chat", "e1", "k2")
		mock.ExpectGet(key).RedisNil()
		mock.ExpectSetNX(key+":lock", "locked", 30*time.Second).SetVal(false)

		calls := 0
		r := newPostRouter(middleware.Idempotency(rdb, zap.NewNop()), &calls)
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set(middleware.IdempotencyHeader, "k2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requests without a key pass through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newPostRouter(middleware.Idempotency(rdb, zap.NewNop()), &calls)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

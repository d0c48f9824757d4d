package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/middleware/jwtware"
)

var signingKey = []byte("test-secret")

// By default we set an expiration time 1 hour from now
func generateToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	if claims["exp"] == nil {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingKey)
	require.NoError(t, err)
	return signed
}

type identity struct {
	ID string
}

func resolver() jwtware.TokenResolver {
	return jwtware.TokenResolverFunc(func(ctx context.Context, raw string) (any, any, error) {
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return signingKey, nil
		})
		if err != nil {
			return nil, nil, err
		}
		sub, _ := claims["sub"].(string)
		return &identity{ID: sub}, claims, nil
	})
}

func newServer() router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New()
	})
}

func newApp(cfg jwtware.Config) *fiber.App {
	srv := newServer()
	srv.Router().Get("/protected", func(ctx router.Context) error {
		id, ok := ctx.Locals("user").(*identity)
		if !ok {
			return ctx.Status(router.StatusInternalServerError).SendString("")
		}
		return ctx.SendString(id.ID)
	}, jwtware.New(cfg))
	return srv.WrappedRouter()
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTWare_HeaderExtraction(t *testing.T) {
	app := newApp(jwtware.Config{Resolver: resolver()})
	valid := generateToken(t, jwt.MapClaims{"sub": "12345"})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid bearer", header: "Bearer " + valid, status: fiber.StatusOK, body: "12345"},
		{name: "scheme is case insensitive", header: "bearer " + valid, status: fiber.StatusOK, body: "12345"},
		{name: "missing header", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, status: fiber.StatusUnauthorized},
		{name: "scheme only", header: "Bearer ", status: fiber.StatusUnauthorized},
		{name: "malformed token", header: "Bearer malformed.token.structure", status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			status, body := doRequest(t, app, req)
			assert.Equal(t, tt.status, status)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
		})
	}
}

func TestJWTWare_ExpiredToken(t *testing.T) {
	var captured error
	app := newApp(jwtware.Config{
		Resolver: resolver(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return ctx.Status(router.StatusUnauthorized).SendString("")
		},
	})

	expired := generateToken(t, jwt.MapClaims{
		"sub": "12345",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+expired)
	status, _ := doRequest(t, app, req)

	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.Error(t, captured)
	assert.True(t, errors.Is(captured, jwt.ErrTokenExpired))
}

func TestJWTWare_TokenLookupSources(t *testing.T) {
	valid := generateToken(t, jwt.MapClaims{"sub": "abc"})
	app := newApp(jwtware.Config{
		Resolver:    resolver(),
		TokenLookup: "header:Authorization,cookie:jwt,query:auth_token",
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: valid})
		status, body := doRequest(t, app, req)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "abc", body)
	})

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected?auth_token="+valid, nil)
		status, body := doRequest(t, app, req)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "abc", body)
	})

	t.Run("none", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		status, _ := doRequest(t, app, req)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestJWTWare_FilterSkipsAuth(t *testing.T) {
	srv := newServer()
	srv.Router().Get("/public", func(ctx router.Context) error {
		return ctx.SendString("ok")
	}, jwtware.New(jwtware.Config{
		Resolver: resolver(),
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/public"
		},
	}))

	status, body := doRequest(t, srv.WrappedRouter(), httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestJWTWare_ValidationListenerAndEnricher(t *testing.T) {
	type ctxKey struct{}
	var listened bool
	var fromCtx any

	srv := newServer()
	srv.Router().Get("/", func(ctx router.Context) error {
		fromCtx = ctx.Context().Value(ctxKey{})
		return ctx.Status(router.StatusNoContent).SendString("")
	}, jwtware.New(jwtware.Config{
		Resolver: resolver(),
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(ctx router.Context, id any) error {
				listened = true
				return nil
			},
		},
		ContextEnricher: func(ctx context.Context, id any) context.Context {
			return context.WithValue(ctx, ctxKey{}, id)
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+generateToken(t, jwt.MapClaims{"sub": "u1"}))
	status, _ := doRequest(t, srv.WrappedRouter(), req)

	assert.Equal(t, fiber.StatusNoContent, status)
	assert.True(t, listened)
	require.IsType(t, &identity{}, fromCtx)
	assert.Equal(t, "u1", fromCtx.(*identity).ID)
}

func TestJWTWare_ListenerErrorRejects(t *testing.T) {
	srv := newServer()
	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.SendString("ok")
	}, jwtware.New(jwtware.Config{
		Resolver: resolver(),
		ValidationListeners: []jwtware.ValidationListener{
			func(ctx router.Context, id any) error {
				return errors.New("blocked")
			},
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+generateToken(t, jwt.MapClaims{"sub": "u1"}))
	status, _ := doRequest(t, srv.WrappedRouter(), req)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGetDefaultConfigPanicsWithoutResolver(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	})

	cfg := jwtware.GetDefaultConfig(jwtware.Config{Resolver: resolver()})
	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "claims", cfg.ClaimsContextKey)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
}

func TestGetExtractors(t *testing.T) {
	assert.Len(t, jwtware.GetExtractors("header:Authorization, cookie:jwt ,query:t,param:token"), 4)
	assert.Len(t, jwtware.GetExtractors("bogus,header"), 0)
}

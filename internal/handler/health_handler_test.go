package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"authbridge/internal/handler"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler_Health(t *testing.T) {
	h := handler.NewHealthHandler(fakePinger{})
	c, w := newContext(http.MethodGet, "/api/health", "")

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "OK", resp["message"])
	assert.Equal(t, "ok", resp["data"].(map[string]any)["status"])
}

func TestHealthHandler_Readiness(t *testing.T) {
	c, w := newContext(http.MethodGet, "/readyz", "")
	handler.NewHealthHandler(fakePinger{}).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", "")
	handler.NewHealthHandler(fakePinger{err: errors.New("down")}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

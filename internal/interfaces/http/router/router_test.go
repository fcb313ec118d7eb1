package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group).Setup()

	w := get(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, get(engine, http.MethodGet, "/test/ping").Code)
}

func TestRouterMiddlewareAppliesToAPIOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})
	r.Register(NewDomainGroup("zones", "/zones").GET("", func(c *gin.Context) { c.Status(http.StatusOK) }))
	r.Setup()

	assert.Equal(t, "yes", get(engine, http.MethodGet, "/api/v1/zones").Header().Get("X-Api"))
	assert.Empty(t, get(engine, http.MethodGet, "/health").Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("zones", "/zones")
		assert.Equal(t, "zones", g.Name())
		assert.Equal(t, "/zones", g.Prefix())
	})

	t.Run("registers routes and middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) {
				c.Header("X-Test-Middleware", "applied")
				c.Next()
			}).
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			GET("", func(c *gin.Context) { c.String(http.StatusOK, "root") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := get(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))

		assert.Equal(t, http.StatusCreated, get(engine, http.MethodPost, "/api/v1/test/items").Code)
		assert.Equal(t, "root", get(engine, http.MethodGet, "/api/v1/test").Body.String())
	})
}

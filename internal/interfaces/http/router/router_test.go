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

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("leads", "/leads")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/leads/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-API", "yes")
		c.Next()
	})
	r.Register(NewDomainGroup("leads", "/leads").GET("", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})).Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "yes", serve(engine, http.MethodGet, "/api/v1/leads").Header().Get("X-API"))
	assert.Empty(t, serve(engine, http.MethodGet, "/outside").Header().Get("X-API"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("customers", "/customers")
		assert.Equal(t, "customers", g.Name())
		assert.Equal(t, "/customers", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("customers", "/customers")
		g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
			POST("", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, "updated") }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) }).
			Handle(http.MethodPatch, "/:id", func(c *gin.Context) { c.String(http.StatusOK, "patched") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/api/v1/customers/5", http.StatusOK},
			{http.MethodPost, "/api/v1/customers", http.StatusCreated},
			{http.MethodPut, "/api/v1/customers/5", http.StatusOK},
			{http.MethodDelete, "/api/v1/customers/5", http.StatusNoContent},
			{http.MethodPatch, "/api/v1/customers/5", http.StatusOK},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("leads", "/leads").Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/leads")

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("same prefix with different chains", func(t *testing.T) {
		engine := gin.New()
		open := NewDomainGroup("open", "/auth")
		open.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
		closed := NewDomainGroup("closed", "/auth").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})
		closed.POST("/logout", func(c *gin.Context) { c.Status(http.StatusOK) })

		api := engine.Group("/api/v1")
		open.RegisterRoutes(api)
		closed.RegisterRoutes(api)

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/auth/login").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodPost, "/api/v1/auth/logout").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("sales", "/sales")
		g.Group("opportunities", "/opportunities").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "opportunities")
		})
		g.Group("stages", "/stages").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "stages")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "opportunities", serve(engine, http.MethodGet, "/api/v1/sales/opportunities").Body.String())
		assert.Equal(t, "stages", serve(engine, http.MethodGet, "/api/v1/sales/stages").Body.String())
	})
}

func TestDomainGroup_Routes(t *testing.T) {
	noop := func(*gin.Context) {}
	g := NewDomainGroup("me", "/me")
	g.GET("", noop).PUT("/password", noop)
	g.Group("companies", "/companies").GET("", noop).POST("/:id/members", noop)

	assert.Equal(t, []string{
		"GET /me",
		"PUT /me/password",
		"GET /me/companies",
		"POST /me/companies/:id/members",
	}, g.Routes())
}

package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a set of routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under a versioned API prefix
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be mounted on Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts all registered routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Group is a declarative route group built up by the wiring code and
// mounted later through RegisterRoutes
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewGroup creates a route group with the given path prefix
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Use adds middleware applied to every route in this group
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET registers a GET route
func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle("GET", path, handlers)
}

// POST registers a POST route
func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle("POST", path, handlers)
}

// PUT registers a PUT route
func (g *Group) PUT(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle("PUT", path, handlers)
}

// PATCH registers a PATCH route
func (g *Group) PATCH(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle("PATCH", path, handlers)
}

// DELETE registers a DELETE route
func (g *Group) DELETE(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle("DELETE", path, handlers)
}

func (g *Group) handle(method, path string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// RegisterRoutes implements RouteRegistrar
func (g *Group) RegisterRoutes(rg *gin.RouterGroup) {
	mounted := rg.Group(g.prefix)
	if len(g.middleware) > 0 {
		mounted.Use(g.middleware...)
	}
	for _, rt := range g.routes {
		switch rt.method {
		case "GET":
			mounted.GET(rt.path, rt.handlers...)
		case "POST":
			mounted.POST(rt.path, rt.handlers...)
		case "PUT":
			mounted.PUT(rt.path, rt.handlers...)
		case "PATCH":
			mounted.PATCH(rt.path, rt.handlers...)
		case "DELETE":
			mounted.DELETE(rt.path, rt.handlers...)
		}
	}
}

package main

import (
	"net/http"
	"net/http/pprof"

	_ "github.com/jeamon/demo-books/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains middlewares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public MiddlewareFunc
	ops    MiddlewareFunc
}

// SetupRoutes injects book and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/book", m.public(api.GetAllBooks))
	router.POST("/book", m.public(api.CreateBook))
	router.GET("/book/:id", m.public(api.GetOneBook))
	router.PUT("/book/:id", m.public(api.UpdateBook))
	router.DELETE("/book/:id", m.public(api.DeleteOneBook))
	return router
}

// SetupOpsRoutes injects internal operations related endpoints.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/ops/configs", m.ops(api.GetConfigs))
	router.GET("/ops/stats", m.ops(api.GetStatistics))
	router.GET("/ops/maintenance", m.ops(api.Maintenance))
	router.GET("/ops/metrics", m.ops(api.OpsHandlerWrapper(api.metrics.Handler())))

	if api.config.ProfilerEndpointsEnable {
		router.GET("/ops/debug/pprof/", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index))))
		router.GET("/ops/debug/pprof/profile", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Profile))))
		router.GET("/ops/debug/pprof/trace", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Trace))))
		router.GET("/ops/debug/pprof/symbol", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Symbol))))
		router.GET("/ops/debug/pprof/cmdline", m.ops(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Cmdline))))
		for _, profile := range []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"} {
			router.GET("/ops/debug/pprof/"+profile, m.ops(api.OpsHandlerWrapper(pprof.Handler(profile))))
		}
	}

	return router
}

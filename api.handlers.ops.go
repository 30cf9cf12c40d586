package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := &StatusResponse{
		RequestID: requestID,
		Status:    "up & running since " + uptime(api.clock, api.stats.started),
		Message:   "Hello. Books store api is available. Enjoy :)",
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// NotFound replies to unknown routes with a json message.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := &NotFoundResponse{
			RequestID: api.idsHandler.Generate(RequestIDPrefix),
			Message:   "route does not exist",
			Path:      fmt.Sprintf("%s %s", r.Method, r.URL.Path),
		}
		if err := WriteResponse(r.Context(), w, http.StatusNotFound, resp); err != nil {
			api.logger.Error("failed to send not found response", zap.Error(err))
		}
	})
}

// Maintenance handles request to enable or disable the maintenance mode of the service.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	q := r.URL.Query()

	var status int
	var response map[string]interface{}
	switch q.Get("status") {
	case "enable":
		started := api.clock.Now().UTC()
		api.mode.mu.Lock()
		api.mode.message = q.Get("msg")
		api.mode.started = started
		api.mode.mu.Unlock()
		api.mode.enabled.Store(true)
		status = http.StatusOK
		response = map[string]interface{}{
			"requestid":           requestID,
			"maintenance.started": started.Format(time.RFC1123),
			"maintenance.message": q.Get("msg"),
			"message":             "Maintenance mode enabled successfully.",
		}
		logger.Info("maintenance mode enabled", zap.String("maintenance.message", q.Get("msg")))

	case "disable":
		api.mode.enabled.Store(false)
		api.mode.mu.Lock()
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		status = http.StatusOK
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "Maintenance mode disabled successfully.",
		}
		logger.Info("maintenance mode disabled")

	default:
		status = http.StatusBadRequest
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "status query parameter must be enable or disable.",
		}
	}

	if err := WriteResponse(r.Context(), w, status, response); err != nil {
		logger.Error("failed to send maintenance response", zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returned by this handler do not count the ops request which triggered it.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	api.mode.mu.RLock()
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": "",
		"message": api.mode.message,
	}
	if !api.mode.started.IsZero() {
		maintenance["started"] = api.mode.started.Format(time.RFC1123)
	}
	api.mode.mu.RUnlock()

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}

	api.stats.mu.RLock()
	err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid":     requestID,
			"app.version":   api.stats.version,
			"app.container": api.stats.container,
			"app.platform":  api.stats.platform,
			"app.store":     api.config.Store.Driver,
			"go.version":    api.stats.runtime,
			"called":        called,
			"started":       api.stats.started.Format(time.RFC1123),
			"uptime":        uptime(api.clock, api.stats.started),
			"maintenance":   maintenance,
			"status":        api.stats.status,
		},
	)
	api.stats.mu.RUnlock()
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send statistics response", zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations/settings.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"configs": api.config,
		},
	); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send settings response", zap.Error(err))
	}
}

// OpsHandlerWrapper adapts a standard http.Handler to the router.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

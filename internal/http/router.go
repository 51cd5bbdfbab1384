package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/result"
	"github.com/launchlane/launchlane/internal/service/auth"
	"github.com/launchlane/launchlane/internal/service/code"
	"github.com/launchlane/launchlane/internal/service/credential"
	"github.com/launchlane/launchlane/internal/service/feature"
	"github.com/launchlane/launchlane/internal/service/logs"
	"github.com/launchlane/launchlane/internal/service/member"
	"github.com/launchlane/launchlane/internal/service/setting"
	"github.com/launchlane/launchlane/internal/service/user"
	"github.com/launchlane/launchlane/internal/service/workspace"
	"github.com/launchlane/launchlane/internal/token"
	"github.com/launchlane/launchlane/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auth       auth.Service
	users      user.Service
	creds      credential.Service
	workspaces workspace.Service
	members    member.Service
	settings   setting.Service
	features   feature.Service
	codes      code.Service
	logs       logs.Service
	tokens     token.Manager
	upgrader   websocket.Upgrader
	limiter    RateLimiter
	dbHealth   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitSignin    = 12
	rateLimitRefresh   = 30
	rateLimitWrite     = 60
	rateLimitRead      = 120
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, userSvc user.Service, credSvc credential.Service, workspaceSvc workspace.Service, memberSvc member.Service, settingSvc setting.Service, featureSvc feature.Service, codeSvc code.Service, logSvc logs.Service, tokens token.Manager, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		logger:     logger,
		auth:       authSvc,
		users:      userSvc,
		creds:      credSvc,
		workspaces: workspaceSvc,
		members:    memberSvc,
		settings:   settingSvc,
		features:   featureSvc,
		codes:      codeSvc,
		logs:       logSvc,
		tokens:     tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/signup", r.audit(r.withRateLimit("auth_signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/auth/signin", r.audit(r.withRateLimit("auth_signin", rateLimitSignin, rateWindowDefault, rateLimitKeyIP, r.handleSignin)))
	r.mux.HandleFunc("/auth/refresh", r.audit(r.withRateLimit("auth_refresh", rateLimitRefresh, rateWindowDefault, rateLimitKeyIP, r.handleRefresh)))
	r.mux.HandleFunc("/users", r.audit(r.handlerAuthRate("users", rateLimitWrite, rateWindowDefault, r.handleUsers)))
	r.mux.HandleFunc("/users/", r.audit(r.handlerAuthRate("users", rateLimitWrite, rateWindowDefault, r.handleUserSubroutes)))
	r.mux.HandleFunc("/workspaces", r.audit(r.handlerAuthRate("workspaces", rateLimitWrite, rateWindowDefault, r.handleWorkspaces)))
	r.mux.HandleFunc("/workspaces/", r.audit(r.handlerAuthRate("workspaces", rateLimitWrite, rateWindowDefault, r.handleWorkspaceSubroutes)))
	r.mux.HandleFunc("/members/", r.audit(r.handlerAuthRate("members", rateLimitRead, rateWindowDefault, r.handleMemberByUser)))
	r.mux.HandleFunc("/features", r.audit(r.handlerAuthRate("features", rateLimitWrite, rateWindowDefault, r.handleFeatures)))
	r.mux.HandleFunc("/features/", r.audit(r.handlerAuthRate("features", rateLimitWrite, rateWindowDefault, r.handleFeatureByID)))
	r.mux.HandleFunc("/codes", r.audit(r.handlerAuthRate("codes", rateLimitWrite, rateWindowDefault, r.handleCodes)))
	r.mux.HandleFunc("/codes/", r.audit(r.handlerAuthRate("codes", rateLimitWrite, rateWindowDefault, r.handleCodeByID)))
	r.mux.HandleFunc("/logs", r.audit(r.handlerAuthRate("logs", rateLimitWrite, rateWindowDefault, r.handleLogs)))
	r.mux.HandleFunc("/logs/", r.audit(r.handlerAuthRate("logs", rateLimitWrite, rateWindowDefault, r.handleLogByID)))
	r.mux.HandleFunc("/ws/logs", r.audit(r.handlerAuthRate("ws_logs", rateLimitWebsocket, rateWindowRealtime, r.handleLogsWS)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		FirstName    string      `json:"firstName"`
		LastName     string      `json:"lastName"`
		Email        string      `json:"email"`
		Password     string      `json:"password"`
		Avatar       []byte      `json:"avatar"`
		Role         domain.Role `json:"role"`
		PlatformCode string      `json:"platformCode"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if payload.Role == "" {
		payload.Role = domain.RoleCollaborator
	}
	if !payload.Role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	res := r.auth.SignUp(req.Context(), auth.SignUpInput{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Password:     payload.Password,
		Avatar:       payload.Avatar,
		Role:         payload.Role,
		PlatformCode: payload.PlatformCode,
	})
	r.writeToken(w, res)
}

func (r *Router) handleSignin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res := r.auth.SignIn(req.Context(), payload.Email, payload.Password)
	r.writeToken(w, res)
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Token == "" {
		if tok, err := bearerToken(req.Header.Get("Authorization")); err == nil {
			payload.Token = tok
		}
	}
	res := r.auth.Refresh(req.Context(), payload.Token)
	r.writeToken(w, res)
}

// writeToken renders an auth workflow envelope, wrapping the success payload
// under a token key.
func (r *Router) writeToken(w http.ResponseWriter, res result.Result[string]) {
	if msg := res.Err(); msg != "" {
		writeError(w, res.Code(), msg)
		return
	}
	if tok, ok := res.Data(); ok {
		writeJSON(w, res.Code(), map[string]string{"token": tok})
		return
	}
	w.WriteHeader(res.Code())
}

func (r *Router) handleUsers(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		if email := strings.TrimSpace(req.URL.Query().Get("email")); email != "" {
			writeResult(w, r.users.GetByEmail(req.Context(), email))
			return
		}
		writeResult(w, r.users.List(req.Context()))
	case http.MethodPost:
		var payload user.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeResult(w, r.users.Create(req.Context(), payload))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUserSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/users/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		r.handleUserByID(w, req, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "credential":
			r.handleUserCredential(w, req, id)
			return
		case "password":
			r.handleUserPassword(w, req, id)
			return
		case "role":
			r.handleUserRole(w, req, id)
			return
		}
	}
	r.notFound(w)
}

func (r *Router) handleUserByID(w http.ResponseWriter, req *http.Request, id string) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.users.GetByID(req.Context(), id))
	case http.MethodPatch, http.MethodPut:
		var payload user.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.ID = id
		writeResult(w, r.users.Update(req.Context(), payload))
	case http.MethodDelete:
		writeResult(w, r.users.Delete(req.Context(), id))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUserCredential(w http.ResponseWriter, req *http.Request, userID string) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.creds.GetByUserID(req.Context(), userID))
	case http.MethodPatch, http.MethodPut:
		var payload credential.FlagsInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.UserID = userID
		writeResult(w, r.creds.UpdateFlags(req.Context(), payload))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUserPassword(w http.ResponseWriter, req *http.Request, userID string) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	writeResult(w, r.creds.UpdatePassword(req.Context(), userID, payload.Password))
}

func (r *Router) handleUserRole(w http.ResponseWriter, req *http.Request, userID string) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Role domain.Role `json:"role"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !payload.Role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		writeResult(w, r.creds.UpdateRole(req.Context(), userID, payload.Role))
	})(w, req)
}

func (r *Router) handleWorkspaces(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.workspaces.List(req.Context()))
	case http.MethodPost:
		var payload workspace.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeResult(w, r.workspaces.Create(req.Context(), payload))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleWorkspaceSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/workspaces/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	id := parts[0]
	switch {
	case len(parts) == 1:
		r.handleWorkspaceByID(w, req, id)
	case len(parts) == 2 && parts[1] == "members":
		r.handleWorkspaceMembers(w, req, id)
	case len(parts) == 2 && parts[1] == "settings":
		r.handleWorkspaceSettings(w, req, id)
	case len(parts) == 3 && parts[1] == "members" && parts[2] != "":
		r.handleWorkspaceMember(w, req, id, parts[2])
	default:
		r.notFound(w)
	}
}

func (r *Router) handleWorkspaceByID(w http.ResponseWriter, req *http.Request, id string) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.workspaces.GetByID(req.Context(), id))
	case http.MethodPatch, http.MethodPut:
		var payload workspace.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.ID = id
		writeResult(w, r.workspaces.Update(req.Context(), payload))
	case http.MethodDelete:
		writeResult(w, r.workspaces.Delete(req.Context(), id))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleWorkspaceMembers(w http.ResponseWriter, req *http.Request, workspaceID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload member.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.WorkspaceID = workspaceID
	if payload.Role == "" {
		payload.Role = domain.RoleCollaborator
	}
	if !payload.Role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	writeResult(w, r.members.Create(req.Context(), payload))
}

func (r *Router) handleWorkspaceMember(w http.ResponseWriter, req *http.Request, workspaceID, userID string) {
	switch req.Method {
	case http.MethodPatch, http.MethodPut:
		var payload struct {
			Role domain.Role `json:"role"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !payload.Role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		writeResult(w, r.members.UpdateRole(req.Context(), workspaceID, userID, payload.Role))
	case http.MethodDelete:
		writeResult(w, r.members.Delete(req.Context(), workspaceID, userID))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleWorkspaceSettings(w http.ResponseWriter, req *http.Request, workspaceID string) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.settings.GetByWorkspace(req.Context(), workspaceID))
	case http.MethodPost:
		var payload setting.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.WorkspaceID = workspaceID
		writeResult(w, r.settings.Create(req.Context(), payload))
	case http.MethodPatch, http.MethodPut:
		var payload setting.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.WorkspaceID = workspaceID
		writeResult(w, r.settings.Update(req.Context(), payload))
	case http.MethodDelete:
		writeResult(w, r.settings.Delete(req.Context(), workspaceID))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleMemberByUser(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	userID := strings.TrimPrefix(req.URL.Path, "/members/")
	if userID == "" || strings.Contains(userID, "/") {
		r.notFound(w)
		return
	}
	writeResult(w, r.members.GetByUser(req.Context(), userID))
}

func (r *Router) handleFeatures(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.features.List(req.Context()))
	case http.MethodPost:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			var payload feature.CreateInput
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			if strings.TrimSpace(payload.Feature) == "" {
				writeError(w, http.StatusBadRequest, "feature is required")
				return
			}
			writeResult(w, r.features.Create(req.Context(), payload))
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleFeatureByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/features/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.features.GetByID(req.Context(), id))
	case http.MethodPatch, http.MethodPut:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			var payload feature.UpdateInput
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			payload.ID = id
			writeResult(w, r.features.Update(req.Context(), payload))
		})(w, req)
	case http.MethodDelete:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			writeResult(w, r.features.Delete(req.Context(), id))
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCodes(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			writeResult(w, r.codes.List(req.Context()))
		})(w, req)
	case http.MethodPost:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			var payload code.CreateInput
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			if strings.TrimSpace(payload.Code) == "" {
				writeError(w, http.StatusBadRequest, "code is required")
				return
			}
			writeResult(w, r.codes.Create(req.Context(), payload))
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCodeByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/codes/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			writeResult(w, r.codes.GetByID(req.Context(), id))
		})(w, req)
	case http.MethodPatch, http.MethodPut:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			var payload code.UpdateInput
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			payload.ID = id
			writeResult(w, r.codes.Update(req.Context(), payload))
		})(w, req)
	case http.MethodDelete:
		r.requireRole(domain.RoleAdmin, func(w http.ResponseWriter, req *http.Request) {
			writeResult(w, r.codes.Delete(req.Context(), id))
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLogs(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.logs.List(req.Context()))
	case http.MethodPost:
		var payload struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.Description = strings.TrimSpace(payload.Description)
		if payload.Description == "" {
			writeError(w, http.StatusBadRequest, "description is required")
			return
		}
		writeResult(w, r.logs.Create(req.Context(), payload.Description))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLogByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/logs/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		writeResult(w, r.logs.GetByID(req.Context(), id))
	case http.MethodPatch, http.MethodPut:
		var payload struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeResult(w, r.logs.Update(req.Context(), id, payload.Description))
	case http.MethodDelete:
		writeResult(w, r.logs.Delete(req.Context(), id))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLogsWS(w http.ResponseWriter, req *http.Request) {
	if _, ok := authInfoFromContext(req.Context()); !ok {
		r.logger.Error("auth context missing for logs websocket", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	hub := r.logs.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, "log stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	hub.Register(logs.Topic, client)
	go func() {
		defer func() {
			hub.Unregister(logs.Topic, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "email", info.Email, "role", info.Role)
		}
		fields = append(fields, "actor", actor)

		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

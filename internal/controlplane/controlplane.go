// Package controlplane implements the ground-segment REST API: operator
// login/logout, a read-only mission status surface, and operator-roster
// administration, all gated by internal/auth the same way a gorilla/mux
// router gates per-subrouter access with Use middleware.
package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/skyhaven-space/obsw/internal/auth"
	"github.com/skyhaven-space/obsw/internal/metrics"
	"github.com/skyhaven-space/obsw/pkg/log"
)

// StatusFunc returns a JSON-marshalable snapshot of mission state (packet
// pool occupancy, scheduler queue depth, funnel backlog, ...). main wires
// this to whatever components it constructed; controlplane itself knows
// nothing about pool.SharedPool or scheduler.Scheduler.
type StatusFunc func() (interface{}, error)

// Config is the control plane's own listen address. Session settings come
// from whatever internal/auth.Init already configured.
type Config struct {
	Addr string
}

// Server is the REST API's http.Server plus its router, split apart from
// net/http's own Server so Serve can be driven from a context the rest of
// the process also uses for shutdown.
type Server struct {
	cfg    Config
	router *mux.Router
	srv    *http.Server
}

// New builds the router: /login and /logout are public, everything under
// /api requires a valid session or bearer token via authn.Auth.
func New(cfg Config, authn *auth.Authentication, status StatusFunc) *Server {
	router := mux.NewRouter()

	router.Handle("/login", authn.Login(
		http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", "application/json")
			user := auth.GetUser(r.Context())
			json.NewEncoder(rw).Encode(map[string]interface{}{
				"status":   "ok",
				"username": user.Username,
				"roles":    user.Roles,
			})
		}),
		onFailureResponse,
	)).Methods(http.MethodPost)

	router.Handle("/logout", authn.Logout(
		http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusOK)
		}),
	)).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return authn.Auth(next, onFailureResponse)
	})

	api.HandleFunc("/status", handleStatus(status)).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	admin := api.PathPrefix("/operators").Subrouter()
	admin.Use(requireRole(auth.RoleAdmin))
	admin.HandleFunc("", handleListOperators(authn)).Methods(http.MethodGet)
	admin.HandleFunc("/{username}/roles", handleSetRoles(authn)).Methods(http.MethodPut)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))

	return &Server{cfg: cfg, router: router}
}

func onFailureResponse(rw http.ResponseWriter, r *http.Request, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(rw).Encode(map[string]string{
		"status": http.StatusText(http.StatusUnauthorized),
		"error":  err.Error(),
	})
}

func requireRole(role auth.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			user := auth.GetUser(r.Context())
			if user == nil || !user.HasRole(role) {
				onFailureResponse(rw, r, fmt.Errorf("requires role %q", auth.GetRoleString(role)))
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}

func handleStatus(status StatusFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		snapshot, err := status()
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(rw).Encode(snapshot)
	}
}

func handleListOperators(authn *auth.Authentication) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		users, err := authn.ListUsers(false)
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(rw).Encode(users)
	}
}

func handleSetRoles(authn *auth.Authentication) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		username := mux.Vars(r)["username"]
		var body struct {
			Roles []string `json:"roles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		for _, role := range body.Roles {
			if err := authn.AddRole(username, role); err != nil {
				http.Error(rw, err.Error(), http.StatusBadRequest)
				return
			}
		}
		rw.WriteHeader(http.StatusNoContent)
	}
}

// Serve starts the HTTP server and blocks until ctx is canceled, then shuts
// it down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	logged := handlers.CustomLoggingHandler(io.Discard, s.router, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("%s %s (%d, %dms)", params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
	})

	s.srv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: logged,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

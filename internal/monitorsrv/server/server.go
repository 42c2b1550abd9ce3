package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/common/logtrace"
	commonmiddleware "github.com/nodewatch/nodewatch/internal/common/middleware"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/apis"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/auth"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/notify"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/server/middleware"
	"github.com/nodewatch/nodewatch/pkg/types"
)

type MonitorServer struct {
	Router *chi.Mux
}

func CreateNewServer() (*MonitorServer, error) {
	s := &MonitorServer{}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *MonitorServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(middleware.Instrument)
	if config.Config().HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:8190"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-API-Key"},
			AllowCredentials: false,
		}))
	}

	// Metrics are scraped from inside the deployment; no credential.
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.Get("/version", s.getVersion)

	s.Router.Route("/", s.mountResourceHandlers)

	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			fmt.Printf("Logging err: %s\n", err.Error())
		}
	}
}

func (s *MonitorServer) mountResourceHandlers(r chi.Router) {
	r.Use(middleware.LoadScopedDB)
	r.Use(auth.Authenticate)
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleAgent, types.RoleLoader, types.RoleConfigurator))
		g.Get("/ws/status", notify.ServeWS)
	})
	apis.Router(r)
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *MonitorServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Nodewatch Monitor Server: 0.1.0",
		ApiVersion:    "v1alpha1",
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

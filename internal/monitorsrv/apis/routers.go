package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/auth"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// Route tables are grouped by the role required to reach them. Admin keys
// satisfy every group.

var agentHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodGet,
		Path:    "/assignments",
		Handler: listActiveAssignments,
	},
}

var ingestHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodPost,
		Path:    "/results",
		Handler: postResult,
	},
	{
		Method:  http.MethodPost,
		Path:    "/results/batch",
		Handler: postResultsBatch,
	},
}

var configuratorHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodPost,
		Path:    "/assignments/bulk",
		Handler: bulkCreateAssignments,
	},
	{
		Method:  http.MethodPost,
		Path:    "/assignments",
		Handler: createAssignment,
	},
	{
		Method:  http.MethodGet,
		Path:    "/assignments/{assignmentID}",
		Handler: getAssignment,
	},
	{
		Method:  http.MethodPut,
		Path:    "/assignments/{assignmentID}",
		Handler: updateAssignment,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/assignments/{assignmentID}",
		Handler: deleteAssignment,
	},
	{
		Method:  http.MethodGet,
		Path:    "/assignments/{assignmentID}/results",
		Handler: listAssignmentResults,
	},
	{
		Method:  http.MethodGet,
		Path:    "/results/{resultID}",
		Handler: getResult,
	},
	{
		Method:  http.MethodGet,
		Path:    "/results/{resultID}/detail",
		Handler: getResultDetail,
	},
	{
		Method:  http.MethodGet,
		Path:    "/bundle/{orgUnitCode}",
		Handler: getBundle,
	},
}

var statusHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodGet,
		Path:    "/status",
		Handler: listStatus,
	},
	{
		Method:  http.MethodGet,
		Path:    "/status/{assetID}",
		Handler: getAssetStatus,
	},
}

func Router(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleAgent))
		mountHandlers(g, agentHandlers)
	})
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleAgent, types.RoleLoader))
		mountHandlers(g, ingestHandlers)
	})
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleConfigurator))
		mountHandlers(g, configuratorHandlers)
		mountEntityHandlers(g)
	})
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleAdmin))
		mountHandlers(g, apiKeyHandlers)
	})
	r.Group(func(g chi.Router) {
		g.Use(auth.RequireRole(types.RoleAgent, types.RoleLoader, types.RoleConfigurator))
		mountHandlers(g, statusHandlers)
	})
}

func mountHandlers(r chi.Router, handlers []httpx.ResponseHandlerParam) {
	for _, handler := range handlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}

package router

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/pterm/pterm"

	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/logger"
)

const AccessPublic = "public"

type RouteInfo struct {
	Handler     http.HandlerFunc
	Description string
	Method      string
	Path        string
	Access      domain.Role // empty for public routes
	Order       int
}

// Pattern is the net/http 1.22 method qualified mux pattern
func (ri RouteInfo) Pattern() string {
	return ri.Method + " " + ri.Path
}

func (ri RouteInfo) IsPublic() bool {
	return ri.Access == ""
}

type RouteRegistry struct {
	routes   map[string]RouteInfo
	logger   logger.StyledLogger
	orderSeq int
}

func NewRouteRegistry(logger logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{
		routes:   make(map[string]RouteInfo),
		logger:   logger,
		orderSeq: 0,
	}
}

// Register adds a route open to everyone
func (r *RouteRegistry) Register(method, path string, handler http.HandlerFunc, description string) {
	r.register(method, path, handler, description, "")
}

// RegisterWithAccess adds a route that requires a caller holding access
func (r *RouteRegistry) RegisterWithAccess(method, path string, handler http.HandlerFunc, description string, access domain.Role) {
	r.register(method, path, handler, description, access)
}

func (r *RouteRegistry) register(method, path string, handler http.HandlerFunc, description string, access domain.Role) {
	info := RouteInfo{
		Handler:     handler,
		Description: description,
		Method:      method,
		Path:        path,
		Access:      access,
		Order:       r.orderSeq,
	}
	r.routes[info.Pattern()] = info
	r.orderSeq++
}

// WireUp mounts every route on mux, wrapping each handler with whatever
// chain returns for it. A nil chain mounts handlers as registered.
func (r *RouteRegistry) WireUp(mux *http.ServeMux, chain func(RouteInfo) func(http.Handler) http.Handler) {
	for pattern, info := range r.routes {
		var handler http.Handler = info.Handler
		if chain != nil {
			handler = chain(info)(handler)
		}
		mux.Handle(pattern, handler)
	}
	r.logRoutesTable()
}

func (r *RouteRegistry) GetRoutes() map[string]RouteInfo {
	return r.routes
}

// Ordered returns routes in registration order
func (r *RouteRegistry) Ordered() []RouteInfo {
	entries := make([]RouteInfo, 0, len(r.routes))
	for _, info := range r.routes {
		entries = append(entries, info)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Order < entries[j].Order
	})
	return entries
}

func (r *RouteRegistry) logRoutesTable() {
	if len(r.routes) == 0 {
		return
	}

	tableData := [][]string{
		{"ROUTE", "METHOD", "ACCESS", "DESCRIPTION"},
	}

	entries := r.Ordered()
	for _, entry := range entries {
		access := AccessPublic
		if !entry.IsPublic() {
			access = string(entry.Access)
		}
		tableData = append(tableData, []string{
			entry.Path,
			entry.Method,
			access,
			entry.Description,
		})
	}

	r.logger.InfoWithCount("Registered web routes", len(entries))
	tableString, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	fmt.Print(tableString)
}

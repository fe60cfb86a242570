package http

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// RouteStats is the collected route table plus per-method counts.
type RouteStats struct {
	Total   int            `json:"total"`
	Methods map[string]int `json:"methods"`
	Routes  []RouteInfo    `json:"routes"`
}

// RouteFilters narrows and orders the printed route list.
type RouteFilters struct {
	Method string
	Path   string
	SortBy string
}

// CollectRoutes walks the router and records every registered route.
func CollectRoutes(router Router) RouteStats {
	stats := RouteStats{Methods: make(map[string]int)}

	_ = router.Walk(func(method, path string, handler http.Handler) error {
		stats.Routes = append(stats.Routes, RouteInfo{
			Method:  method,
			Path:    path,
			Handler: handlerName(handler),
		})
		stats.Methods[method]++
		stats.Total++
		return nil
	})

	return stats
}

// handlerName resolves the handler's function name via the runtime. Method
// values carry an "-fm" suffix that is stripped for readability.
func handlerName(h http.Handler) string {
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return fmt.Sprintf("%T", h)
	}
	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// PrintRoutes writes the route table in the requested format. Unknown
// formats fall back to the table layout.
func PrintRoutes(w io.Writer, stats RouteStats, format string, filters RouteFilters) {
	routes := applyFilters(stats.Routes, filters)
	sortRoutes(routes, filters.SortBy)

	switch format {
	case "json":
		out := stats
		out.Routes = routes
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"method", "path", "handler"})
		for _, r := range routes {
			_ = cw.Write([]string{r.Method, r.Path, r.Handler})
		}
		cw.Flush()
	case "simple":
		for _, r := range routes {
			fmt.Fprintf(w, "%-8s %s\n", r.Method, r.Path)
		}
	default:
		printRouteTable(w, routes, stats)
	}
}

func applyFilters(routes []RouteInfo, filters RouteFilters) []RouteInfo {
	if filters.Method == "" && filters.Path == "" {
		return append([]RouteInfo(nil), routes...)
	}

	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		if filters.Method != "" && !strings.EqualFold(r.Method, filters.Method) {
			continue
		}
		if filters.Path != "" && !strings.Contains(r.Path, filters.Path) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortRoutes(routes []RouteInfo, by string) {
	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		switch by {
		case "method":
			if a.Method != b.Method {
				return a.Method < b.Method
			}
			return a.Path < b.Path
		case "handler":
			return a.Handler < b.Handler
		default:
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			return a.Method < b.Method
		}
	})
}

func printRouteTable(w io.Writer, routes []RouteInfo, stats RouteStats) {
	fmt.Fprintf(w, "Registered routes: %d\n", stats.Total)
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if count, ok := stats.Methods[m]; ok {
			fmt.Fprintf(w, "  %-8s %d\n", m, count)
		}
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Path, r.Handler)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nShowing %d of %d routes\n", len(routes), stats.Total)
}

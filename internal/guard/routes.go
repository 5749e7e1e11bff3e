package guard

import (
	"strings"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Route is one navigable view. Role, when set, is required in addition to
// a token. Public routes need neither.
type Route struct {
	Pattern string     `json:"pattern" yaml:"pattern"`
	Title   string     `json:"title" yaml:"title"`
	Public  bool       `json:"public,omitempty" yaml:"public,omitempty"`
	Role    types.Role `json:"role,omitempty" yaml:"role,omitempty"`
}

// Table is an ordered set of routes. Earlier routes win on ambiguous matches.
type Table struct {
	routes []Route
}

// NewTable creates a table from routes
func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// DefaultRoutes returns the application's views
func DefaultRoutes() *Table {
	return NewTable(
		Route{Pattern: "/login", Title: "Login", Public: true},
		Route{Pattern: "/register", Title: "Register", Public: true},
		Route{Pattern: "/dashboard", Title: "Dashboard"},
		Route{Pattern: "/reservations", Title: "My reservations"},
		Route{Pattern: "/events", Title: "Events"},
		Route{Pattern: "/create-event", Title: "Create event", Role: types.RoleAdmin},
		Route{Pattern: "/events/edit/:id", Title: "Edit event", Role: types.RoleAdmin},
		Route{Pattern: "/events/:id/reservations", Title: "Event reservations", Role: types.RoleAdmin},
		Route{Pattern: "/events/:id", Title: "Event details"},
	)
}

// All returns the routes in order
func (t *Table) All() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Resolve finds the route for path. Query strings and trailing slashes
// are ignored.
func (t *Table) Resolve(path string) (Route, bool) {
	path, _, _ = strings.Cut(path, "?")
	for _, r := range t.routes {
		if _, ok := Match(r.Pattern, path); ok {
			return r, true
		}
	}
	return Route{}, false
}

// Match matches path against a pattern with :name segments and returns
// the captured parameters.
func Match(pattern, path string) (map[string]string, bool) {
	ps := split(pattern)
	vs := split(path)
	if len(ps) != len(vs) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range ps {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if vs[i] == "" {
				return nil, false
			}
			params[name] = vs[i]
			continue
		}
		if seg != vs[i] {
			return nil, false
		}
	}
	return params, true
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

package routes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// Reverser resolves route names to URLs.
type Reverser struct {
	prefix string
	byName map[string]Route
}

// NewReverser indexes routes mounted under prefix.
func NewReverser(prefix string, routes []Route) *Reverser {
	rev := &Reverser{prefix: prefix, byName: make(map[string]Route, len(routes))}
	for _, route := range routes {
		rev.byName[route.Name] = route
	}
	return rev
}

// Has reports whether a route is known.
func (r *Reverser) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[name]
	return ok
}

// Route returns the route registered under name.
func (r *Reverser) Route(name string) (Route, bool) {
	if r == nil {
		return Route{}, false
	}
	route, ok := r.byName[name]
	return route, ok
}

// URL renders the URL of the named route. Object routes need exactly one
// primary key.
func (r *Reverser) URL(name string, pk ...int64) (string, error) {
	route, ok := r.Route(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoRoute, name)
	}
	path := mountPath(r.prefix, route.Path)
	if !route.Kind.HasObject() {
		if len(pk) > 0 {
			return "", fmt.Errorf("routes: %q takes no primary key", name)
		}
		return path, nil
	}
	if len(pk) != 1 || pk[0] < 0 {
		return "", fmt.Errorf("routes: %q requires one non-negative primary key", name)
	}
	return strings.Replace(path, "{"+PKParam+"}", strconv.FormatInt(pk[0], 10), 1), nil
}

// ModelURL renders a model-level route (list or create).
func (r *Reverser) ModelURL(m *model.Model, action Kind) (string, error) {
	return r.URL(Name(m, action.Action()))
}

// ObjectURL renders a record-level route (detail, update or delete).
func (r *Reverser) ObjectURL(obj *model.Object, action Kind) (string, error) {
	if obj == nil || obj.Model == nil {
		return "", fmt.Errorf("routes: object is required")
	}
	return r.URL(Name(obj.Model, action.Action()), obj.PK)
}

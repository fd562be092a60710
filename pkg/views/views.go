package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen/pkg/events"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// Handlers builds a View for every generated route.
type Handlers struct {
	cfg config
}

// New validates the configuration shared by every view.
func New(opts ...Option) (*Handlers, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Handlers{cfg: cfg}, nil
}

// Handler implements routes.HandlerFactory.
func (h *Handlers) Handler(route routes.Route) (http.Handler, error) {
	if route.Model == nil {
		return nil, fmt.Errorf("views: route %q has no model", route.Name)
	}
	switch route.Kind {
	case routes.KindList, routes.KindDetail, routes.KindCreate, routes.KindUpdate,
		routes.KindDelete, routes.KindCreateInlines, routes.KindUpdateInlines:
	default:
		return nil, fmt.Errorf("views: route %q has unknown kind %q", route.Name, route.Kind)
	}
	return &View{Route: route, cfg: h.cfg}, nil
}

// View serves one generated route.
type View struct {
	Route routes.Route
	cfg   config
}

// request carries the per-request state of a view, including the owner
// resolved once during dispatch.
type request struct {
	w     http.ResponseWriter
	r     *http.Request
	ctx   context.Context
	view  *View
	crud  options.Resolved
	user  *User
	owner *model.Object
	pk    int64
}

// httpError is an error with the status it should be answered with.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func statusErr(status int, format string, args ...any) error {
	return &httpError{status: status, err: fmt.Errorf(format, args...)}
}

func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := v.cfg.logger.With(
		slog.String("route", v.Route.Name),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	ctx := slogcontext.NewCtx(r.Context(), logger)

	req := &request{w: w, r: r.WithContext(ctx), ctx: ctx, view: v, crud: v.Route.Model.CRUD()}
	if err := v.dispatch(req); err != nil {
		req.fail(err)
	}
}

func (v *View) allowed() []string {
	return v.Route.Kind.Methods()
}

func (v *View) dispatch(req *request) error {
	allowed := false
	for _, method := range v.allowed() {
		if req.r.Method == method {
			allowed = true
			break
		}
	}
	if !allowed {
		for _, method := range v.allowed() {
			req.w.Header().Add("Allow", method)
		}
		return statusErr(http.StatusMethodNotAllowed, "method %s not allowed", req.r.Method)
	}

	if v.Route.Kind.HasObject() {
		raw := req.r.PathValue(routes.PKParam)
		pk, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || pk < 0 || !isDigits(raw) {
			return statusErr(http.StatusNotFound, "invalid primary key %q", raw)
		}
		req.pk = pk
	}

	if req.crud.OwnerScoped() {
		user, err := v.cfg.auth.Authenticate(req.r)
		if err != nil {
			return fmt.Errorf("views: authenticate: %w", err)
		}
		if user == nil {
			http.Redirect(req.w, req.r, loginRedirect(v.cfg.loginURL, req.r.URL.RequestURI()), http.StatusFound)
			return nil
		}
		req.user = user
		owner, err := v.resolveOwner(req)
		if err != nil {
			return err
		}
		req.owner = owner
		req.ctx = slogcontext.NewCtx(req.ctx, slogcontext.FromCtx(req.ctx).With(slog.Int64("owner", owner.PK)))
	}

	switch v.Route.Kind {
	case routes.KindList:
		return v.list(req)
	case routes.KindDetail:
		return v.detail(req)
	case routes.KindDelete:
		return v.delete(req)
	default:
		return v.edit(req)
	}
}

func loginRedirect(loginURL, next string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL + "?next=" + url.QueryEscape(next)
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

// resolveOwner returns the record the requester acts for: the object named by
// the requester's profile, or for staff the one selected with
// ?<owner_ref>=<pk>.
func (v *View) resolveOwner(req *request) (*model.Object, error) {
	ownerRef := req.crud.OwnerRef
	target, err := v.cfg.models.Target(v.Route.Model, ownerRef)
	if err != nil {
		return nil, fmt.Errorf("views: owner field of %s: %w", v.Route.Model.Qualified(), err)
	}

	var pk int64
	if raw := req.r.URL.Query().Get(ownerRef); req.user.Staff && raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return nil, statusErr(http.StatusNotFound, "invalid %s override %q", ownerRef, raw)
		}
		pk = parsed
	} else {
		if req.user.Profile == nil {
			return nil, statusErr(http.StatusForbidden, "requester %d has no profile", req.user.ID)
		}
		value, err := req.user.Profile.Get(ownerRef)
		if err != nil {
			return nil, fmt.Errorf("views: requester profile: %w", err)
		}
		if value == nil {
			return nil, statusErr(http.StatusForbidden, "requester %d has no %s", req.user.ID, ownerRef)
		}
		resolved, ok := model.AsInt64(value)
		if !ok {
			return nil, fmt.Errorf("views: requester profile %s is %T, not a primary key", ownerRef, value)
		}
		pk = resolved
	}

	owner, err := v.cfg.store.Get(req.ctx, target, pk, nil)
	if errors.Is(err, store.ErrNotFound) {
		return nil, statusErr(http.StatusNotFound, "%s %d not found", target.Qualified(), pk)
	}
	if err != nil {
		return nil, fmt.Errorf("views: load owner: %w", err)
	}
	return owner, nil
}

// scope is the owner filter applied to every query of the view's model.
func (req *request) scope() store.Filter {
	if req.owner == nil {
		return nil
	}
	return store.Filter{req.crud.OwnerRef: req.owner.PK}
}

func (v *View) object(req *request) (*model.Object, error) {
	obj, err := v.cfg.store.Get(req.ctx, v.Route.Model, req.pk, req.scope())
	if errors.Is(err, store.ErrNotFound) {
		return nil, statusErr(http.StatusNotFound, "%s %d not found", v.Route.Model.Qualified(), req.pk)
	}
	if err != nil {
		return nil, fmt.Errorf("views: load %s %d: %w", v.Route.Model.Qualified(), req.pk, err)
	}
	return obj, nil
}

func (req *request) fail(err error) {
	logger := slogcontext.FromCtx(req.ctx)
	status := http.StatusInternalServerError
	var herr *httpError
	if errors.As(err, &herr) {
		status = herr.status
	}
	if status >= http.StatusInternalServerError {
		logger.Error("view failed", slog.Any("error", err))
	} else {
		logger.Debug("view rejected request", slog.Int("status", status), slog.Any("error", err))
	}
	http.Error(req.w, http.StatusText(status), status)
}

func (v *View) publish(req *request, obj *model.Object, action string) {
	topic := events.Topic(obj.Model, action)
	if err := v.cfg.publisher.Publish(req.ctx, topic, events.NewChange(obj, action, req.owner)); err != nil {
		slogcontext.FromCtx(req.ctx).Warn("publish change event", slog.String("topic", topic), slog.Any("error", err))
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

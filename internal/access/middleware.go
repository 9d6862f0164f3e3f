package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Identity headers set by the upstream session gateway.
const (
	HeaderUserID     = "X-User-Id"
	HeaderUserName   = "X-User-Name"
	HeaderUserRole   = "X-User-Role"
	HeaderUserEmail  = "X-User-Email"
	HeaderEmployeeID = "X-User-Employee-Id"
	HeaderStore      = "X-User-Store"
	HeaderArea       = "X-User-Area"
)

var (
	// ErrNoProfile is returned when the request carries no identity.
	ErrNoProfile = errors.New("access: no profile")
	// ErrUnknownRole is returned for a role outside the known set.
	ErrUnknownRole = errors.New("access: unknown role")
)

type profileKey struct{}

// WithProfile stores the profile on the context.
func WithProfile(ctx context.Context, p retail.Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

// ProfileFromContext returns the profile stored by WithProfile, or nil.
func ProfileFromContext(ctx context.Context) *retail.Profile {
	p, ok := ctx.Value(profileKey{}).(retail.Profile)
	if !ok {
		return nil
	}
	return &p
}

// ProfileFromHeaders builds a profile from the trusted identity headers.
func ProfileFromHeaders(h http.Header) (retail.Profile, error) {
	id := strings.TrimSpace(h.Get(HeaderUserID))
	rawRole := strings.TrimSpace(h.Get(HeaderUserRole))
	if id == "" || rawRole == "" {
		return retail.Profile{}, ErrNoProfile
	}
	role, ok := retail.ParseRole(rawRole)
	if !ok {
		return retail.Profile{}, ErrUnknownRole
	}
	return retail.Profile{
		ID:          id,
		Name:        strings.TrimSpace(h.Get(HeaderUserName)),
		Role:        role,
		Email:       strings.TrimSpace(h.Get(HeaderUserEmail)),
		EmployeeID:  strings.TrimSpace(h.Get(HeaderEmployeeID)),
		Store:       strings.TrimSpace(h.Get(HeaderStore)),
		AreaManager: strings.TrimSpace(h.Get(HeaderArea)),
	}, nil
}

// Middleware wires profile resolution and capability guards for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Authenticate loads the profile from request headers onto the context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, err := ProfileFromHeaders(r.Header)
		if err != nil {
			if errors.Is(err, ErrUnknownRole) && m.Logger != nil {
				m.Logger.Warn("access unknown role", slog.String("role", r.Header.Get(HeaderUserRole)))
			}
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
	})
}

// RequireAny ensures the current profile holds at least one capability.
func (m Middleware) RequireAny(caps ...Capability) func(http.Handler) http.Handler {
	return m.guard(func(role retail.Role) bool { return CanAny(role, caps...) })
}

// RequireAll ensures the current profile holds every capability.
func (m Middleware) RequireAll(caps ...Capability) func(http.Handler) http.Handler {
	return m.guard(func(role retail.Role) bool {
		for _, c := range caps {
			if !Can(role, c) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) guard(allowed func(retail.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := ProfileFromContext(r.Context())
			if profile == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !allowed(profile.Role) {
				if m.Logger != nil {
					m.Logger.Info("access denied", slog.String("user", profile.ID), slog.String("role", string(profile.Role)), slog.String("path", r.URL.Path))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package views

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// User is the authenticated requester. Profile is the record whose owner
// reference field names the requester's owner.
type User struct {
	ID      int64
	Staff   bool
	Profile *model.Object
}

// Authenticator identifies the requester. A nil user with a nil error means
// the request is anonymous.
type Authenticator interface {
	Authenticate(r *http.Request) (*User, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (*User, error)

func (fn AuthenticatorFunc) Authenticate(r *http.Request) (*User, error) {
	return fn(r)
}

// AnonymousAuthenticator treats every request as anonymous.
type AnonymousAuthenticator struct{}

func (AnonymousAuthenticator) Authenticate(*http.Request) (*User, error) {
	return nil, nil
}

// Header names read by HeaderAuthenticator.
const (
	ProfileHeader = "X-Crudgen-Profile"
	StaffHeader   = "X-Crudgen-Staff"
)

// HeaderAuthenticator trusts a profile primary key sent in ProfileHeader. It
// is meant for development servers sitting behind an authenticating proxy.
type HeaderAuthenticator struct {
	Store   store.Store
	Profile *model.Model
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (*User, error) {
	raw := strings.TrimSpace(r.Header.Get(ProfileHeader))
	if raw == "" {
		return nil, nil
	}
	pk, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || pk < 0 {
		return nil, nil
	}
	profile, err := a.Store.Get(r.Context(), a.Profile, pk, nil)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("views: load profile %d: %w", pk, err)
	}
	staff, _ := strconv.ParseBool(strings.TrimSpace(r.Header.Get(StaffHeader)))
	return &User{ID: pk, Staff: staff, Profile: profile}, nil
}

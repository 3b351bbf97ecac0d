package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// Default headers set by the fronting identity proxy.
const (
	DefaultUserHeader         = "X-User-ID"
	DefaultSubscriptionHeader = "X-Subscription-Active"
	DefaultTokenHeader        = "X-Provider-Token"
)

var errNoUser = common.NewAppError("UNAUTHORIZED", "no authenticated user", common.ErrUnauthorized)

// Principal is the caller as seen by the access gate.
type Principal struct {
	UserID             string
	SubscriptionActive bool
}

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

// CredentialProvider returns the caller's calendar-provider access token, or "".
type CredentialProvider interface {
	ProviderToken(r *http.Request) string
}

// HeaderAuthenticator trusts identity headers written by a reverse proxy.
type HeaderAuthenticator struct {
	UserHeader         string
	SubscriptionHeader string
}

// NewHeaderAuthenticator uses the default header names.
func NewHeaderAuthenticator() HeaderAuthenticator {
	return HeaderAuthenticator{UserHeader: DefaultUserHeader, SubscriptionHeader: DefaultSubscriptionHeader}
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (Principal, error) {
	user := strings.TrimSpace(r.Header.Get(a.UserHeader))
	if user == "" {
		return Principal{}, errNoUser
	}
	active, _ := strconv.ParseBool(strings.TrimSpace(r.Header.Get(a.SubscriptionHeader)))
	return Principal{UserID: user, SubscriptionActive: active}, nil
}

// HeaderCredentials reads the provider token from a request header.
type HeaderCredentials struct {
	Header string
}

func (c HeaderCredentials) ProviderToken(r *http.Request) string {
	h := c.Header
	if h == "" {
		h = DefaultTokenHeader
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get(h), "Bearer "))
}

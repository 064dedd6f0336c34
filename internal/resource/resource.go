// Package resource models addresses of renderable content. A Local address is
// a path served by this process and needs origin qualification before a device
// can fetch it; a Remote address is already absolute and passes through
// untouched.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
)

var (
	// ErrInvalidFormat indicates the input could not be parsed as an address.
	ErrInvalidFormat = errors.New("resource: invalid address format")
	// ErrUnsupported indicates a URL scheme other than http or https.
	ErrUnsupported = errors.New("resource: unsupported scheme")
)

// Address is either a locally served path or a fully qualified remote URL.
// The zero value is not a valid address; construct via Parse or the helpers.
type Address struct {
	path   string   // set for local addresses, always absolute-rooted
	remote *url.URL // set for remote addresses
}

// Parse interprets a root-relative path as a local address and an http/https
// URL as a remote one.
func Parse(s string) (Address, error) {
	if strings.HasPrefix(s, "/") {
		if _, err := url.Parse(s); err != nil {
			return Address{}, ErrInvalidFormat
		}
		return Address{path: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return Address{}, ErrInvalidFormat
	}
	switch u.Scheme {
	case "http", "https":
		return Address{remote: u}, nil
	case "":
		return Address{}, ErrInvalidFormat
	default:
		return Address{}, ErrUnsupported
	}
}

// ContentAddress is the local address of a device's composed document.
func ContentAddress(id string) Address {
	return Address{path: "/content/" + id}
}

// ScreenAddress is the local address of a device's rendered image.
func ScreenAddress(id string) Address {
	return Address{path: "/screen/" + id}
}

// IsLocal reports whether the address is served by this process.
func (a Address) IsLocal() bool { return a.remote == nil }

// Remote returns the remote URL and true for remote addresses.
func (a Address) Remote() (*url.URL, bool) {
	if a.remote == nil {
		return nil, false
	}
	return a.remote, true
}

// FullyQualified joins a local path onto the process's own origin. Remote
// addresses are origin-invariant. InitSelf must have run before serving.
func (a Address) FullyQualified() *url.URL {
	if a.remote != nil {
		return a.remote
	}
	return SelfURL().JoinPath(a.path)
}

// RewrittenFor binds a local address to the origin the caller actually used
// to reach us, so absolute URLs handed back to a device work through proxies
// and host aliases. Identity on remote addresses.
func (a Address) RewrittenFor(scheme, host string) (Address, error) {
	if a.remote != nil {
		return a, nil
	}
	if host == "" {
		return Address{}, ErrInvalidFormat
	}
	base, err := url.Parse(fmt.Sprintf("%s://%s/", scheme, host))
	if err != nil || base.Host == "" {
		return Address{}, ErrInvalidFormat
	}
	return Address{remote: base.JoinPath(a.path)}, nil
}

// Href is the short client-facing form: bare path for local addresses, full
// URL for remote ones. Suitable for embedding in a preview page link.
func (a Address) Href() string {
	if a.remote != nil {
		return a.remote.String()
	}
	return a.path
}

func (a Address) String() string { return a.Href() }

// selfURL is set exactly once before the server starts accepting requests and
// is read concurrently by every render thereafter.
var selfURL atomic.Pointer[url.URL]

// InitSelf computes the process-wide origin from the configured port and TLS
// flag. Call once at startup, before serving.
func InitSelf(port int, tls bool) {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	u, err := url.Parse(fmt.Sprintf("%s://localhost:%d/", scheme, port))
	if err != nil {
		panic(fmt.Sprintf("resource: self origin: %v", err))
	}
	selfURL.Store(u)
}

// SelfURL returns the process's own origin. Panics if InitSelf has not run;
// startup initialization guarantees it has by the time requests arrive.
func SelfURL() *url.URL {
	u := selfURL.Load()
	if u == nil {
		panic("resource: InitSelf not called")
	}
	return u
}

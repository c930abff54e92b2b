// SPDX-License-Identifier: MPL-2.0

package npmpublish

// Registry is one destination package repository. The URL belongs to the
// registry alone; credentials and access fall back to Defaults.
type Registry struct {
	name     string
	defaults *Defaults

	url       Optional[string]
	authToken Optional[string]
	otp       Optional[string]
	access    Optional[Access]
}

func newRegistry(name string, defaults *Defaults) *Registry {
	return &Registry{name: name, defaults: defaults}
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// URL returns the registry URL, or "" when unset.
func (r *Registry) URL() string { return Resolve(r.url, nil) }

// SetURL sets the registry URL.
func (r *Registry) SetURL(v string) { r.url.Set(v) }

// AuthToken returns the token, defaulting to Defaults.AuthToken.
func (r *Registry) AuthToken() string {
	return Resolve(r.authToken, func() string { return r.defaults.AuthToken })
}

// SetAuthToken overrides the token.
func (r *Registry) SetAuthToken(v string) { r.authToken.Set(v) }

// OTP returns the one-time password, defaulting to Defaults.OTP.
func (r *Registry) OTP() string {
	return Resolve(r.otp, func() string { return r.defaults.OTP })
}

// SetOTP overrides the one-time password.
func (r *Registry) SetOTP(v string) { r.otp.Set(v) }

// Access returns the access level, defaulting to Defaults.Access.
func (r *Registry) Access() Access {
	return Resolve(r.access, func() Access { return r.defaults.Access })
}

// SetAccess overrides the access level.
func (r *Registry) SetAccess(v Access) { r.access.Set(v) }

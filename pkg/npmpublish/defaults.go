// SPDX-License-Identifier: MPL-2.0

package npmpublish

import (
	"errors"
	"fmt"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"

	// AccessPublic publishes scoped packages publicly.
	AccessPublic Access = "public"
	// AccessRestricted publishes scoped packages privately.
	AccessRestricted Access = "restricted"
)

// ErrInvalidAccess is the sentinel error wrapped by InvalidAccessError.
var ErrInvalidAccess = errors.New("invalid access level")

type (
	// Access is the npm access level passed to `npm publish --access`.
	Access string

	// InvalidAccessError is returned when an Access value is not recognized.
	// It wraps ErrInvalidAccess for errors.Is() compatibility.
	InvalidAccessError struct {
		Value Access
	}

	// Defaults is the shared fallback scope. Publications and registries read
	// any field they leave unset from here at read time.
	Defaults struct {
		// Readme is a file copied into every staged package as README.md.
		Readme string
		// Organization scopes package names as @organization/name.
		Organization string
		// Registry is the registry URL used by publications.
		Registry string
		// AuthToken is the publish token.
		AuthToken string
		// OTP is a one-time password for 2FA-protected registries.
		OTP string
		// Access is the default access level.
		Access Access
		// Dry makes pack and publish run with --dry-run.
		Dry bool
	}
)

// Error implements the error interface.
func (e *InvalidAccessError) Error() string {
	return fmt.Sprintf("invalid access %q (expected %q or %q)", e.Value, AccessPublic, AccessRestricted)
}

// Unwrap returns ErrInvalidAccess so callers can use errors.Is for programmatic detection.
func (e *InvalidAccessError) Unwrap() error { return ErrInvalidAccess }

// Validate returns an error when the access level is not recognized.
func (a Access) Validate() error {
	switch a {
	case AccessPublic, AccessRestricted:
		return nil
	default:
		return &InvalidAccessError{Value: a}
	}
}

// String returns the access level as passed on the npm command line.
func (a Access) String() string { return string(a) }

// NewDefaults returns the built-in defaults: the public npm registry and
// public access.
func NewDefaults() *Defaults {
	return &Defaults{
		Registry: DefaultRegistry,
		Access:   AccessPublic,
	}
}

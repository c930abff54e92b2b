// SPDX-License-Identifier: MPL-2.0

// Package release announces published packages as GitLab releases.
//
// A release is tagged v<version>, points at the commit the packages were
// built from, carries the changelog as its description and links every
// published package as an asset.
package release

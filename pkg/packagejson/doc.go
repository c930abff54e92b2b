// SPDX-License-Identifier: MPL-2.0

// Package packagejson models the npm package descriptor (package.json).
//
// Recognized top-level keys are typed fields on PackageJSON; any other key is
// kept in Extra and written back verbatim. Encoding is stable: recognized keys
// appear in schema order, extra keys follow in lexical order, and the output
// is indented with two spaces and terminated by a newline.
package packagejson

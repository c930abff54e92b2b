// SPDX-License-Identifier: MPL-2.0

// Package config handles user configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/npmpub/config.cue (resolved by
// github.com/adrg/xdg, so ~/Library/Application Support on macOS and
// %LOCALAPPDATA% on Windows). It holds the npm command line and user-wide
// publishing defaults. NPMPUB_AUTH_TOKEN, NPMPUB_OTP and NPMPUB_DRY override
// credentials and dry-run mode for a single invocation; those overrides win
// over project defaults, which in turn win over this file.
package config

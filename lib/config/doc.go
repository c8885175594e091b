// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for easel binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - the EASEL_CONFIG environment variable, or
//   - the --config flag passed to the command.
//
// There are no fallbacks or automatic discovery. This keeps
// configuration deterministic and auditable with no hidden overrides.
// Both binaries tolerate a missing config entirely — every field has
// a default, and the common flags (--listen, --store, --session)
// override file values.
package config

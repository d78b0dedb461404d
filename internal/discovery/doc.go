// SPDX-License-Identifier: MPL-2.0

// Package discovery resolves which artifact variants apply to a project.
//
// It loads component manifests from the project and the configured search
// paths into a registry, then walks the dependency graph from a root
// component with FindVariants, keeping only leaf variants: a variant named
// in another collected variant's Replaces list is dropped. Non-fatal problems
// are returned as Diagnostics for the CLI to render.
package discovery

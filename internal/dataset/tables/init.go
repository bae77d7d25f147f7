// Package tables registers the built-in dataset definitions.
// Import this package to ensure all datasets are registered.
package tables

// Each file uses init() to register its datasets.

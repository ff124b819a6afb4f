// Package types defines the taxonomy entities (Cluster, Vector, Theme), the
// store state and its persisted payload, configuration, and the standard
// error types shared by the taxonomy store and its collaborators.
package types

// Package idgen generates the opaque identifiers used for jobs and
// workspace names. Callers must not rely on the exact format.
package idgen

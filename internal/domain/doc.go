// Package domain holds the core entities and repository contracts. It has no
// dependencies on adapters or the HTTP layer.
package domain

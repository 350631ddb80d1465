// Package model defines data structures for audionotes.
//
// This package contains:
//   - Note: stored note data model
//   - Result: list/search result with optional relevance score
//   - Config: server configuration
package model

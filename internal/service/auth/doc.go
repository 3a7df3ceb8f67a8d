// Package auth issues and validates the HS256 bearer tokens that guard the
// task API when an auth secret is configured.
package auth

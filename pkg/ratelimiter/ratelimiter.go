// Package ratelimiter provides request throttling for the serving shell.
package ratelimiter

// RateLimiter reports whether a request is allowed to proceed.
type RateLimiter interface {
	Allow() bool
}

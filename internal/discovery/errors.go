package discovery

import "errors"

// Domain errors for the discovery package.
var (
	// ErrNotFound is returned when no advertised instance matched within
	// the resolution timeout.
	ErrNotFound = errors.New("discovery: instance not found")

	// ErrBrowseFailed is returned when the mDNS query itself could not be
	// started (no usable network interface, socket failure).
	ErrBrowseFailed = errors.New("discovery: browse failed")

	// ErrNoAddress is returned when an instance was advertised without a
	// usable IPv4 address.
	ErrNoAddress = errors.New("discovery: instance has no IPv4 address")
)

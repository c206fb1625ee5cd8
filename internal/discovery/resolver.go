package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/riderlink/riderlink-core/internal/trainer"
)

// Defaults, overridable via NewResolver arguments.
const (
	// DefaultService is the Dircon advertisement service type.
	DefaultService = "_wahoo-fitness-tnp._tcp"

	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."

	defaultTimeout = 5 * time.Second
)

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Resolver looks up trainer instances advertised over mDNS.
//
// Thread Safety:
//   - Endpoint resolvers returned by Endpoint may be used concurrently;
//     each resolution runs its own mDNS query.
type Resolver struct {
	service string
	domain  string
	timeout time.Duration
	logger  Logger
}

// NewResolver creates a resolver for the given service type and domain.
// Empty or zero arguments take the package defaults.
func NewResolver(service, domain string, timeout time.Duration) *Resolver {
	if service == "" {
		service = DefaultService
	}
	if domain == "" {
		domain = DefaultDomain
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		service: service,
		domain:  domain,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for this resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Endpoint returns a session endpoint resolver for the named instance.
// Resolution happens on every Connect, so IP changes are picked up on
// reconnect.
func (r *Resolver) Endpoint(instance string) trainer.EndpointResolver {
	return trainer.EndpointResolverFunc(func(ctx context.Context) (string, error) {
		return r.Resolve(ctx, instance)
	})
}

// Resolve looks up one advertised instance and returns its "ip:port"
// endpoint. Bounded by the resolver timeout and ctx, whichever is shorter.
func (r *Resolver) Resolve(ctx context.Context, instance string) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBrowseFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Lookup(ctx, instance, r.service, r.domain, entries); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBrowseFailed, err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %q in %s", ErrNotFound, instance, r.service)
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("%w: %q in %s", ErrNotFound, instance, r.service)
			}
			if entry == nil || entry.Instance != instance {
				continue
			}
			addr, err := Endpoint(entry)
			if err != nil {
				r.logger.Warn("skipping unusable advertisement",
					"instance", entry.Instance, "error", err)
				continue
			}
			r.logger.Debug("resolved trainer", "instance", instance, "endpoint", addr)
			return addr, nil
		}
	}
}

// Endpoint extracts the "ip:port" endpoint from a service entry.
func Endpoint(entry *zeroconf.ServiceEntry) (string, error) {
	if len(entry.AddrIPv4) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoAddress, entry.Instance)
	}
	return fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port), nil
}

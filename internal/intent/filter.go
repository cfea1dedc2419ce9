package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// PassThrough is the filter used for schemes without one.
const PassThrough = "(function(uri) { return uri; })"

// ErrInvalidFilterFile is returned for filter files that are not a JSON
// object of callable function sources.
var ErrInvalidFilterFile = errors.New("invalid scheme filter file")

// Evaluator rewrites a navigation URI into a {scheme, path, host} map.
type Evaluator interface {
	Apply(ctx context.Context, rawURL string) (map[string]any, error)
}

// SchemeFilter runs per-scheme JavaScript filter functions. Each function
// receives {scheme, path, host} and returns the object to navigate to.
type SchemeFilter struct {
	log     zerolog.Logger
	timeout time.Duration

	mu          sync.Mutex
	vm          *goja.Runtime
	filters     map[string]goja.Callable
	passThrough goja.Callable
}

var _ Evaluator = (*SchemeFilter)(nil)

// FilterOption configures a SchemeFilter.
type FilterOption func(*SchemeFilter)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) FilterOption {
	return func(f *SchemeFilter) { f.log = log }
}

// WithTimeout bounds a single filter call. Zero disables the bound.
func WithTimeout(d time.Duration) FilterOption {
	return func(f *SchemeFilter) { f.timeout = d }
}

// NewSchemeFilter compiles sources, a map of scheme to function source.
// Sources that do not evaluate to a function are dropped and their scheme
// falls back to PassThrough.
func NewSchemeFilter(sources map[string]string, opts ...FilterOption) *SchemeFilter {
	f := &SchemeFilter{
		log:     zerolog.Nop(),
		timeout: time.Second,
		vm:      goja.New(),
		filters: make(map[string]goja.Callable, len(sources)),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.passThrough, _ = compile(f.vm, PassThrough)

	for scheme, src := range sources {
		fn, err := compile(f.vm, src)
		if err != nil {
			f.log.Warn().Err(err).Str("scheme", scheme).Msg("ignoring scheme filter")
			continue
		}
		f.filters[scheme] = fn
	}

	return f
}

// compile evaluates src and returns the function it yields.
func compile(vm *goja.Runtime, src string) (goja.Callable, error) {
	v, err := vm.RunString(src)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("not callable")
	}
	return fn, nil
}

// Schemes returns the schemes with a filter, sorted.
func (f *SchemeFilter) Schemes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.filters))
	for s := range f.filters {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HasFilterFor reports whether scheme has its own filter.
func (f *SchemeFilter) HasFilterFor(scheme string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.filters[scheme]
	return ok
}

// Input returns the object handed to the filter of rawURL. Intent URIs are
// described by their parsed scheme, path and host.
func Input(rawURL string) (scheme string, input map[string]any, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	if u.Scheme == Scheme {
		d := FromURL(u)
		return u.Scheme, map[string]any{"scheme": d.Scheme, "path": d.URIPath, "host": d.Host}, nil
	}
	return u.Scheme, map[string]any{"scheme": u.Scheme, "path": u.Path, "host": u.Hostname()}, nil
}

// Apply runs the filter registered for the scheme of rawURL. A result that
// is not a plain object gives an empty map.
func (f *SchemeFilter) Apply(ctx context.Context, rawURL string) (map[string]any, error) {
	scheme, input, err := Input(rawURL)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	fn, ok := f.filters[scheme]
	if !ok {
		fn = f.passThrough
	}

	v, err := f.call(ctx, fn, input)
	if err != nil {
		f.log.Warn().Err(err).Str("scheme", scheme).Msg("scheme filter failed")
		return nil, fmt.Errorf("filter %s: %w", scheme, err)
	}

	result := map[string]any{}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return result, nil
	}
	if obj, ok := v.Export().(map[string]any); ok {
		result = obj
	}
	return result, nil
}

func (f *SchemeFilter) call(ctx context.Context, fn goja.Callable, input map[string]any) (goja.Value, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	defer f.vm.ClearInterrupt()
	stop := context.AfterFunc(ctx, func() {
		f.vm.Interrupt(ctx.Err())
	})
	defer stop()

	return fn(goja.Undefined(), f.vm.ToValue(input))
}

// ParseFilterFile reads a JSON object mapping schemes to function sources.
// Non-string values are ignored. The file is invalid when it is not an
// object or when any source does not evaluate to a function.
func ParseFilterFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilterFile, err)
	}
	return ParseFilters(data)
}

// ParseFilters is ParseFilterFile over raw content.
func ParseFilters(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil || len(root) == 0 {
		return nil, fmt.Errorf("%w: expected a non-empty JSON object", ErrInvalidFilterFile)
	}

	out := make(map[string]string, len(root))
	for scheme, v := range root {
		src, ok := v.(string)
		if !ok {
			continue
		}
		if _, err := compile(goja.New(), src); err != nil {
			return nil, fmt.Errorf("%w: scheme %q: %w", ErrInvalidFilterFile, scheme, err)
		}
		out[scheme] = src
	}
	return out, nil
}

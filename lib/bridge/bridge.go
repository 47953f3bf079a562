package bridge

import (
	"context"
	"sync/atomic"

	"github.com/ValentinKolb/logicbridge/lib/buffer"
	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/ValentinKolb/logicbridge/lib/dispatch"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sourcegraph/conc/panics"
)

var Logger = logger.GetLogger("bridge")

var buffersLive atomic.Int64

func init() {
	metrics.NewGauge("logic_buffers_live", func() float64 {
		return float64(buffersLive.Load())
	})
}

// ICaller is implemented by everything that can execute envelopes: the
// in-process Bridge and the remote client of the dev server.
type ICaller interface {
	// Call executes a synchronous request envelope and returns the response envelope
	Call(ctx context.Context, req []byte) (resp []byte, err error)
	// CallAsync executes an asynchronous request envelope, done is called exactly once
	CallAsync(req []byte, done dispatch.Completion)
	// Close releases all resources
	Close() (err error)
}

// Config configures a Bridge
type Config struct {
	Cache          cache.Config
	MaxConcurrency int  // Max. concurrently running async calls (0 = unbounded)
	TrackBuffers   bool // Wrap the allocator in a buffer.TrackingAllocator
}

// Option customizes a Bridge
type Option func(*options)

type options struct {
	handlers  dispatch.HandlerSet
	allocator buffer.IAllocator
	codec     envelope.ICodec
	logLevel  func(level string) error
}

// WithHandlers registers handlers. They replace the built-in handlers of
// the same case.
func WithHandlers(handlers dispatch.HandlerSet) Option {
	return func(o *options) {
		o.handlers = o.handlers.Merge(handlers)
	}
}

// WithAllocator sets the allocator for buffers handed to the host
func WithAllocator(alloc buffer.IAllocator) Option {
	return func(o *options) {
		o.allocator = alloc
	}
}

// WithCodec sets the envelope codec
func WithCodec(codec envelope.ICodec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithLogLevelHook sets the function the configure handler uses to change
// the log level
func WithLogLevelHook(fn func(level string) error) Option {
	return func(o *options) {
		o.logLevel = fn
	}
}

// Bridge connects the host to the handlers: it owns the cache, the
// dispatcher and the buffer protocol.
type Bridge struct {
	cache      *cache.Cache
	dispatcher *dispatch.Dispatcher
	protocol   *buffer.Protocol
	tracker    *buffer.TrackingAllocator
	logLevel   func(level string) error
}

// New creates a bridge. The cache is not opened before the first handler
// uses it.
func New(cfg Config, opts ...Option) *Bridge {
	o := &options{}
	b := &Bridge{
		cache: cache.New(cfg.Cache),
	}
	o.handlers = b.builtinHandlers()
	for _, opt := range opts {
		opt(o)
	}

	alloc := o.allocator
	if alloc == nil {
		alloc = buffer.NewHeapAllocator()
	}
	if cfg.TrackBuffers {
		b.tracker = buffer.NewTrackingAllocator(alloc)
		alloc = b.tracker
	}

	b.protocol = buffer.NewProtocol(alloc)
	b.logLevel = o.logLevel
	b.dispatcher = dispatch.NewDispatcher(o.handlers, dispatch.Options{
		Codec:          o.codec,
		Cache:          b.cache,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	Logger.Infof("bridge created (max concurrency %d, buffer tracking %v)", cfg.MaxConcurrency, cfg.TrackBuffers)
	return b
}

// Cache returns the cache shared by all handlers
func (b *Bridge) Cache() *cache.Cache {
	return b.cache
}

// Codec returns the envelope codec
func (b *Bridge) Codec() envelope.ICodec {
	return b.dispatcher.Codec()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see bridge.ICaller)
// --------------------------------------------------------------------------

func (b *Bridge) Call(ctx context.Context, req []byte) ([]byte, error) {
	return b.dispatcher.Dispatch(ctx, req)
}

func (b *Bridge) CallAsync(req []byte, done dispatch.Completion) {
	b.dispatcher.DispatchAsync(req, done)
}

// Close waits for all async calls and closes the cache
func (b *Bridge) Close() error {
	b.dispatcher.Wait()
	return b.cache.Close()
}

// --------------------------------------------------------------------------
// Buffer Methods
// --------------------------------------------------------------------------

// CallBuffer executes a synchronous request and returns the result as a
// buffer owned by the caller, who must hand it back to Release.
func (b *Bridge) CallBuffer(req []byte) buffer.Buffer {
	var buf buffer.Buffer
	if r := panics.Try(func() {
		buf = b.protocol.FromResult(b.Call(context.Background(), req))
	}); r != nil {
		Logger.Errorf("sync call panicked outside of the handler: %v", r.Value)
		buf = b.protocol.FromError(r.String())
	}
	buffersLive.Add(1)
	return buf
}

// CallAsyncBuffer executes an asynchronous request. deliver is called
// exactly once with a buffer owned by the receiver, who must hand it back
// to Release.
func (b *Bridge) CallAsyncBuffer(req []byte, deliver func(buffer.Buffer)) {
	b.CallAsync(req, func(resp []byte, err error) {
		buf := b.protocol.FromResult(resp, err)
		buffersLive.Add(1)
		deliver(buf)
	})
}

// Release frees a buffer returned by CallBuffer or delivered by
// CallAsyncBuffer. Releasing the same buffer twice is undefined.
func (b *Bridge) Release(buf buffer.Buffer) {
	b.protocol.Release(buf)
	buffersLive.Add(-1)
}

// LiveBuffers returns the number of allocations not yet released, or -1
// if buffer tracking is disabled
func (b *Bridge) LiveBuffers() int {
	if b.tracker == nil {
		return -1
	}
	return b.tracker.Live()
}

package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

var Logger = logger.GetLogger("dispatch")

// Completion receives the result of an asynchronous call. Exactly one of
// resp and err is set. resp is only valid for the duration of the call.
type Completion func(resp []byte, err error)

// Options configures a Dispatcher
type Options struct {
	Codec          envelope.ICodec // Envelope codec (nil = wire codec)
	Cache          *cache.Cache    // Cache handed to the handlers (may be nil)
	MaxConcurrency int             // Max. concurrently running async calls (0 = unbounded)
}

// Dispatcher decodes request envelopes, routes them to the registered
// handler and encodes the response envelope.
//
// Thread-safety: all methods are safe for concurrent use
type Dispatcher struct {
	handlers HandlerSet
	codec    envelope.ICodec
	cache    *cache.Cache
	sem      chan struct{}
	wg       conc.WaitGroup
}

// NewDispatcher creates a dispatcher for the given handlers
func NewDispatcher(handlers HandlerSet, opts Options) *Dispatcher {
	d := &Dispatcher{
		handlers: handlers,
		codec:    opts.Codec,
		cache:    opts.Cache,
	}
	if d.codec == nil {
		d.codec = envelope.NewWireCodec()
	}
	if opts.MaxConcurrency > 0 {
		d.sem = make(chan struct{}, opts.MaxConcurrency)
	}
	return d
}

// Codec returns the envelope codec of the dispatcher
func (d *Dispatcher) Codec() envelope.ICodec {
	return d.codec
}

// --------------------------------------------------------------------------
// Entry Points
// --------------------------------------------------------------------------

// Dispatch handles a synchronous request on the calling goroutine and
// returns the encoded response envelope. All failures, including panics in
// the handler, are returned as *Error.
func (d *Dispatcher) Dispatch(ctx context.Context, req []byte) ([]byte, error) {
	return d.run(ctx, envelope.KindSync, req)
}

// DispatchAsync handles an asynchronous request. It returns immediately,
// the request runs on its own goroutine and done is called exactly once,
// with the encoded response envelope or an *Error, on whichever goroutine
// finished the work. req is copied before DispatchAsync returns.
func (d *Dispatcher) DispatchAsync(req []byte, done Completion) {
	token := newCompletionToken(done)
	data := bytes.Clone(req)
	asyncInflight.Add(1)

	d.wg.Go(func() {
		defer asyncInflight.Add(-1)

		if d.sem != nil {
			d.sem <- struct{}{}
			defer func() { <-d.sem }()
		}

		var resp []byte
		var err error
		if r := panics.Try(func() {
			resp, err = d.run(context.Background(), envelope.KindAsync, data)
		}); r != nil {
			Logger.Errorf("async dispatch panicked: %v", r.Value)
			resp, err = nil, wrapError(CodeHandlerPanic, envelope.CaseNone, r.AsError())
		}
		token.complete(resp, err)
	})
}

// Wait blocks until all asynchronous calls dispatched so far completed.
// It must not be called concurrently with DispatchAsync.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// run decodes, routes, executes and encodes one request
func (d *Dispatcher) run(ctx context.Context, kind envelope.Kind, data []byte) ([]byte, error) {
	start := time.Now()
	defer callDuration(kind).UpdateDuration(start)

	req, err := d.codec.DecodeRequest(kind, data)
	if err != nil {
		return nil, d.fail(kind, wrapError(CodeMalformedRequest, envelope.CaseNone, err))
	}
	callsTotal(kind, req.Case).Inc()

	handler, derr := d.handlers.route(req.Case)
	if derr != nil {
		return nil, d.fail(kind, derr)
	}

	hc := HandlerContext{Kind: kind, Case: req.Case, Cache: d.cache}

	var payload []byte
	var herr error
	if r := panics.Try(func() {
		payload, herr = handler(ctx, hc, req.Payload)
	}); r != nil {
		Logger.Errorf("%s handler for %s panicked: %v\n%s", kind, req.Case, r.Value, r.Stack)
		return nil, d.fail(kind, &Error{
			Code: CodeHandlerPanic,
			Case: req.Case,
			Msg:  fmt.Sprint(r.Value),
			Err:  r.AsError(),
		})
	}
	if herr != nil {
		return nil, d.fail(kind, wrapError(CodeHandlerFailure, req.Case, herr))
	}

	resp, err := d.codec.EncodeResponse(envelope.NewResponse(req, payload))
	if err != nil {
		return nil, d.fail(kind, wrapError(CodeHandlerFailure, req.Case, err))
	}

	Logger.Debugf("%s call %s answered with %d bytes in %s", kind, req.Case, len(resp), time.Since(start))
	return resp, nil
}

// fail records err and returns it
func (d *Dispatcher) fail(kind envelope.Kind, err *Error) error {
	callErrorsTotal(kind, err.Code).Inc()
	if err.Code == CodeMalformedRequest {
		Logger.Warningf("rejected %s request: %v", kind, err)
	} else {
		Logger.Debugf("%s call failed: %v", kind, err)
	}
	return err
}

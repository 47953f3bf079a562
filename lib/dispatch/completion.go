package dispatch

import (
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// completionToken delivers the result of one async call. The first call
// to complete invokes the callback, every later call is a no-op.
type completionToken struct {
	once sync.Once
	done Completion
}

func newCompletionToken(done Completion) *completionToken {
	return &completionToken{done: done}
}

// complete invokes the callback if this is the first completion and
// reports whether it did. A panicking callback is logged and swallowed.
func (t *completionToken) complete(resp []byte, err error) bool {
	fired := false
	t.once.Do(func() {
		fired = true
		done := t.done
		t.done = nil
		if done == nil {
			return
		}
		if r := panics.Try(func() { done(resp, err) }); r != nil {
			Logger.Errorf("completion callback panicked: %v", r.Value)
		}
	})
	return fired
}

package dispatch

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/ValentinKolb/logicbridge/lib/cache"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
)

// HandlerContext carries what a handler may need besides its payload
type HandlerContext struct {
	Kind  envelope.Kind
	Case  envelope.Case
	Cache *cache.Cache // nil if the dispatcher has no cache
}

// Handler executes one request. The payload is the encoded request message
// of the case, the returned bytes are the encoded response message. The
// payload must not be retained after the handler returns.
type Handler func(ctx context.Context, hc HandlerContext, payload []byte) ([]byte, error)

// HandlerSet holds one handler per case. Nil fields answer with NoHandler.
// Echo serves the echo case of both entry points.
type HandlerSet struct {
	Echo Handler

	// sync cases
	Configure Handler
	LocalUser Handler
	Auth      Handler

	// async cases
	TopicList         Handler
	TopicDetails      Handler
	SubforumFilter    Handler
	ForumList         Handler
	RemoteUser        Handler
	PostVote          Handler
	TopicHistory      Handler
	HotTopicList      Handler
	ForumSearch       Handler
	FavoriteTopicList Handler
	TopicFavor        Handler
}

// route returns the handler for c
func (h *HandlerSet) route(c envelope.Case) (Handler, *Error) {
	var handler Handler
	switch c {
	case envelope.CaseEcho:
		handler = h.Echo
	case envelope.CaseConfigure:
		handler = h.Configure
	case envelope.CaseLocalUser:
		handler = h.LocalUser
	case envelope.CaseAuth:
		handler = h.Auth
	case envelope.CaseTopicList:
		handler = h.TopicList
	case envelope.CaseTopicDetails:
		handler = h.TopicDetails
	case envelope.CaseSubforumFilter:
		handler = h.SubforumFilter
	case envelope.CaseForumList:
		handler = h.ForumList
	case envelope.CaseRemoteUser:
		handler = h.RemoteUser
	case envelope.CasePostVote:
		handler = h.PostVote
	case envelope.CaseTopicHistory:
		handler = h.TopicHistory
	case envelope.CaseHotTopicList:
		handler = h.HotTopicList
	case envelope.CaseForumSearch:
		handler = h.ForumSearch
	case envelope.CaseFavoriteTopicList:
		handler = h.FavoriteTopicList
	case envelope.CaseTopicFavor:
		handler = h.TopicFavor
	default:
		return nil, NewError(CodeMalformedRequest, c, "no case selected")
	}

	if handler == nil {
		return nil, NewError(CodeNoHandler, c, "no handler registered")
	}
	return handler, nil
}

// Merge returns a copy of h where every non-nil handler of other replaces
// the one in h
func (h HandlerSet) Merge(other HandlerSet) HandlerSet {
	pick := func(dst *Handler, src Handler) {
		if src != nil {
			*dst = src
		}
	}
	pick(&h.Echo, other.Echo)
	pick(&h.Configure, other.Configure)
	pick(&h.LocalUser, other.LocalUser)
	pick(&h.Auth, other.Auth)
	pick(&h.TopicList, other.TopicList)
	pick(&h.TopicDetails, other.TopicDetails)
	pick(&h.SubforumFilter, other.SubforumFilter)
	pick(&h.ForumList, other.ForumList)
	pick(&h.RemoteUser, other.RemoteUser)
	pick(&h.PostVote, other.PostVote)
	pick(&h.TopicHistory, other.TopicHistory)
	pick(&h.HotTopicList, other.HotTopicList)
	pick(&h.ForumSearch, other.ForumSearch)
	pick(&h.FavoriteTopicList, other.FavoriteTopicList)
	pick(&h.TopicFavor, other.TopicFavor)
	return h
}

// --------------------------------------------------------------------------
// Memoization
// --------------------------------------------------------------------------

// KeyFunc derives the cache key of a request. An empty key disables
// memoization for that request.
type KeyFunc func(c envelope.Case, payload []byte) string

// PayloadKey keys a request by its case and a hash of its payload
func PayloadKey(c envelope.Case, payload []byte) string {
	return fmt.Sprintf("%s:%x", c, sha256.Sum256(payload))
}

// Memoize wraps h so that every successful response is stored in the cache.
//
// Memoize is an opt-in offline fallback: when h fails and a response for the
// same key is cached, the cached response is returned instead of the error,
// so the caller cannot tell it apart from a fresh one. Handlers whose
// failures must reach the host are not wrapped. Every served fallback is
// logged with the handler error and counted in
// logic_memoized_fallbacks_total{case="..."}. Without a cached response the
// error is returned unchanged and becomes a HandlerFailure.
func Memoize(keyFn KeyFunc, h Handler) Handler {
	return func(ctx context.Context, hc HandlerContext, payload []byte) ([]byte, error) {
		key := keyFn(hc.Case, payload)
		if key == "" || hc.Cache == nil {
			return h(ctx, hc, payload)
		}

		resp, err := h(ctx, hc, payload)
		if err != nil {
			cached, ok, cerr := hc.Cache.Get(key)
			if cerr != nil || !ok {
				return nil, err
			}
			memoizedFallbacksTotal(hc.Case).Inc()
			Logger.Warningf("%s failed, serving cached response %q: %v", hc.Case, key, err)
			return cached, nil
		}

		if _, _, cerr := hc.Cache.Insert(key, resp); cerr != nil {
			Logger.Warningf("failed to memoize %s response: %v", hc.Case, cerr)
		}
		return resp, nil
	}
}

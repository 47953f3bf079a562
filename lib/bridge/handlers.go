package bridge

import (
	"context"

	"github.com/ValentinKolb/logicbridge/lib/dispatch"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	configCachePath = "cache_path"
	configLogLevel  = "log_level"
)

// builtinHandlers returns the handlers every bridge has
func (b *Bridge) builtinHandlers() dispatch.HandlerSet {
	return dispatch.HandlerSet{
		Echo:      echoHandler,
		Configure: b.configureHandler,
	}
}

// echoHandler answers with the request payload
func echoHandler(_ context.Context, _ dispatch.HandlerContext, payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// configureHandler applies a google.protobuf.Struct with the optional
// fields cache_path and log_level and answers with the effective values.
// The cache path can only change before the cache was first used.
func (b *Bridge) configureHandler(_ context.Context, hc dispatch.HandlerContext, payload []byte) ([]byte, error) {
	req := &structpb.Struct{}
	if err := proto.Unmarshal(payload, req); err != nil {
		return nil, err
	}
	fields := req.GetFields()

	if v, ok := fields[configCachePath]; ok {
		if err := hc.Cache.SetPath(v.GetStringValue()); err != nil {
			return nil, err
		}
	}

	level := ""
	if v, ok := fields[configLogLevel]; ok {
		level = v.GetStringValue()
		if b.logLevel != nil {
			if err := b.logLevel(level); err != nil {
				return nil, err
			}
		}
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		configCachePath: hc.Cache.Path(),
		configLogLevel:  level,
		"cache_opened":  hc.Cache.Opened(),
	})
	if err != nil {
		return nil, err
	}
	Logger.Infof("configured bridge: %v", resp.AsMap())
	return proto.Marshal(resp)
}

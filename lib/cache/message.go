package cache

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
)

// InsertMsg serializes msg and stores it under key. It returns the message
// previously stored under key. A previous value that does not decode as M is
// treated as absent.
func InsertMsg[M proto.Message](c *Cache, key string, msg M) (M, bool, error) {
	var zero M

	data, err := proto.Marshal(msg)
	if err != nil {
		return zero, false, newError("insert", key, errors.Wrap(err, "encode message"))
	}

	prevData, loaded, err := c.Insert(key, data)
	if err != nil || !loaded {
		return zero, false, err
	}

	prev, ok := decode[M](key, prevData)
	return prev, ok, nil
}

// GetMsg returns the message stored under key. A stored value that does not
// decode as M is reported as a miss.
func GetMsg[M proto.Message](c *Cache, key string) (M, bool, error) {
	var zero M

	data, ok, err := c.Get(key)
	if err != nil || !ok {
		return zero, false, err
	}

	msg, ok := decode[M](key, data)
	return msg, ok, nil
}

func decode[M proto.Message](key string, data []byte) (M, bool) {
	var zero M
	msg := zero.ProtoReflect().New().Interface().(M)
	if err := proto.Unmarshal(data, msg); err != nil {
		Logger.Warningf("discarding undecodable cache entry %q: %v", key, err)
		return zero, false
	}
	return msg, true
}

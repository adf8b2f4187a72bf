package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// fakeRedis answers the handful of commands the worker issues from memory. It
// is installed as a client hook, so no connection is ever dialled.
type fakeRedis struct {
	mu     sync.Mutex
	lists  map[string][]string
	hashes map[string]map[string]string
	down   bool
}

func newFakeRedis(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	f := &fakeRedis{lists: map[string][]string{}, hashes: map[string]map[string]string{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(f)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, f
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("fake redis: dial not allowed")
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.down {
			err := errors.New("dial tcp: connection refused")
			cmd.SetErr(err)
			return err
		}

		args := cmd.Args()
		switch cmd.Name() {
		case "lpush":
			key := argString(args[1])
			for _, v := range args[2:] {
				f.lists[key] = append([]string{argString(v)}, f.lists[key]...)
			}
			cmd.(*redis.IntCmd).SetVal(int64(len(f.lists[key])))
		case "hset":
			key := argString(args[1])
			h := f.hashes[key]
			if h == nil {
				h = map[string]string{}
				f.hashes[key] = h
			}
			var added int64
			for i := 2; i+1 < len(args); i += 2 {
				field := argString(args[i])
				if _, ok := h[field]; !ok {
					added++
				}
				h[field] = argString(args[i+1])
			}
			cmd.(*redis.IntCmd).SetVal(added)
		case "hdel":
			h := f.hashes[argString(args[1])]
			var removed int64
			for _, a := range args[2:] {
				if _, ok := h[argString(a)]; ok {
					delete(h, argString(a))
					removed++
				}
			}
			cmd.(*redis.IntCmd).SetVal(removed)
		case "hvals":
			vals := []string{}
			for _, v := range f.hashes[argString(args[1])] {
				vals = append(vals, v)
			}
			cmd.(*redis.StringSliceCmd).SetVal(vals)
		default:
			err := fmt.Errorf("fake redis: unsupported command %q", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

// pop removes the oldest entry of a list, as BRPOP would.
func (f *fakeRedis) pop(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.lists[key]
	if len(l) == 0 {
		return "", false
	}
	last := l[len(l)-1]
	f.lists[key] = l[:len(l)-1]
	return last, true
}

func argString(a interface{}) string {
	switch v := a.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

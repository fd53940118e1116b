/*
	A results index kept in redis, so that several processes (or one
	process across restarts) can share it.

	Layout, under a configurable prefix:

		<prefix>:result:<job>  -- the job's summary; doubles as the publish-once guard
		<prefix>:results       -- list of every summary in publish order
*/
package cassandra_redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/model/cassandra"
)

var _ cassandra.Cassandra = &Base{}

var jsonHandle = &codec.JsonHandle{PreferFloat: true}

/*
	Append-then-guard, atomically.  The list is written first so that a
	failed push leaves no guard behind to swallow the retry.
*/
var publishScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("RPUSH", KEYS[2], ARGV[1])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

type Base struct {
	client *redis.Client
	prefix string

	observers cassandra.Observers
}

func New(client *redis.Client, prefix string) *Base {
	if prefix == "" {
		prefix = "fperr"
	}
	return &Base{client: client, prefix: prefix}
}

// Dial connects to the server named by a `redis://` URL and checks it answers.
func Dial(ctx context.Context, url string, prefix string) (*Base, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, cassandra.StorageError.New("bad redis url %q: %s", url, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cassandra.StorageError.New("redis at %q unreachable: %s", opts.Addr, err)
	}
	return New(client, prefix), nil
}

func (kb *Base) Close() error {
	return kb.client.Close()
}

func (kb *Base) PublishResult(ctx context.Context, s def.Summary) (bool, error) {
	var data []byte
	if err := codec.NewEncoderBytes(&data, jsonHandle).Encode(s); err != nil {
		return false, cassandra.StorageError.Wrap(err)
	}
	fresh, err := publishScript.Run(ctx, kb.client, []string{kb.resultKey(s.Job), kb.listKey()}, data).Int()
	if err != nil {
		return false, cassandra.StorageError.Wrap(err)
	}
	if fresh == 0 {
		return false, nil
	}
	kb.observers.Notify(s)
	return true, nil
}

func (kb *Base) ListResults(ctx context.Context) ([]def.Summary, error) {
	raw, err := kb.client.LRange(ctx, kb.listKey(), 0, -1).Result()
	if err != nil {
		return nil, cassandra.StorageError.Wrap(err)
	}
	out := make([]def.Summary, len(raw))
	for i, r := range raw {
		if err := codec.NewDecoderBytes([]byte(r), jsonHandle).Decode(&out[i]); err != nil {
			return nil, cassandra.StorageError.New("corrupt summary at %s[%d]: %s", kb.listKey(), i, err)
		}
	}
	return out, nil
}

func (kb *Base) Result(ctx context.Context, id def.JobID) (*def.Summary, error) {
	raw, err := kb.client.Get(ctx, kb.resultKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, cassandra.StorageError.Wrap(err)
	}
	s := &def.Summary{}
	if err := codec.NewDecoderBytes(raw, jsonHandle).Decode(s); err != nil {
		return nil, cassandra.StorageError.New("corrupt summary for job %q: %s", id, err)
	}
	return s, nil
}

// Only sees publishes made through this Base, not other processes sharing the server.
func (kb *Base) ObserveResults(ch chan<- def.Summary) (cancel func()) {
	return kb.observers.Add(ch)
}

func (kb *Base) resultKey(id def.JobID) string {
	return kb.prefix + ":result:" + string(id)
}

func (kb *Base) listKey() string {
	return kb.prefix + ":results"
}

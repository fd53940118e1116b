package testutil

import (
	"os"

	"github.com/smartystreets/goconvey/convey"
)

/*
	Runs the Convey block only when `FPERR_TEST_REDIS` names a redis
	server to test against (e.g. "redis://localhost:6379/15").  The
	database there will be written to.
*/
func Convey_IfHaveRedis(items ...interface{}) {
	if RedisURL() != "" {
		convey.Convey(items...)
	} else {
		convey.SkipConvey(items...)
	}
}

func RedisURL() string {
	return os.Getenv("FPERR_TEST_REDIS")
}

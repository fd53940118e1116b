package testutil

import (
	"os"
	"path/filepath"

	"github.com/smartystreets/goconvey/convey"
)

/*
	Decorates a goconvey test with a tmpdir, which is removed when the
	Convey block resets.  The function receives the dir's absolute path;
	the process cwd is left alone.

	See also https://github.com/smartystreets/goconvey/wiki/Decorating-tests-to-provide-common-logic
*/
func WithTmpdir(fn func(tmpDir string)) func() {
	return func() {
		tmpBase := filepath.Join(os.TempDir(), "fperr-test")
		if err := os.MkdirAll(tmpBase, os.FileMode(0777)|os.ModeSticky); err != nil {
			panic(err)
		}
		tmpdir, err := os.MkdirTemp(tmpBase, "")
		if err != nil {
			panic(err)
		}
		convey.Reset(func() {
			os.RemoveAll(tmpdir)
		})
		fn(tmpdir)
	}
}

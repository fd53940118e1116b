package memo

import (
	"os"
	"path/filepath"

	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
)

// CBOR rather than JSON: results may hold NaN and infinities, which JSON can't.
var memoHandle = &codec.CborHandle{}

func ensureDir(memoDir string) error {
	if err := os.MkdirAll(memoDir, 0755); err != nil {
		return executor.ConfigError.New("could not create memodir: %s", err)
	}
	return nil
}

/*
	Attempt to load a memoized result.

	If it doesn't exist, returns nil nil.
*/
func loadMemo(id def.JobID, memoDir string) (*def.Result, error) {
	// Try to open file.
	f, err := os.Open(memoPath(id, memoDir))
	if err != nil {
		// If not exists, no memo.  Fine.
		if os.IsNotExist(err) {
			return nil, nil
		}
		// Any other error is worth warning the caller about.
		return nil, executor.ConfigError.New("error reading memodir: %s", err)
	}
	defer f.Close()
	// Read and return the memoized result.
	result := &def.Result{}
	if err := codec.NewDecoder(f, memoHandle).Decode(result); err != nil {
		return nil, executor.ConfigError.New("error parsing memo for job %q: %s", id, err)
	}
	return result, nil
}

func saveMemo(id def.JobID, memoDir string, result *def.Result) error {
	// Write to a temp file and rename, so a concurrent reader never sees half a memo.
	tmp, err := os.CreateTemp(memoDir, ".memo-*")
	if err != nil {
		return executor.ConfigError.New("could not save memo: %s", err)
	}
	defer os.Remove(tmp.Name())
	if err := codec.NewEncoder(tmp, memoHandle).Encode(result); err != nil {
		tmp.Close()
		return executor.ConfigError.New("could not save memo: %s", err)
	}
	if err := tmp.Close(); err != nil {
		return executor.ConfigError.New("could not save memo: %s", err)
	}
	if err := os.Rename(tmp.Name(), memoPath(id, memoDir)); err != nil {
		return executor.ConfigError.New("could not save memo: %s", err)
	}
	return nil
}

func memoPath(id def.JobID, memoDir string) string {
	return filepath.Join(memoDir, string(id)+".cbor")
}

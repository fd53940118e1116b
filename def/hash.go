package def

import (
	"crypto/sha512"

	"github.com/polydawn/refmt/misc"
	"github.com/ugorji/go/codec"
)

var cborHandle = &codec.CborHandle{}

func init() {
	cborHandle.Canonical = true
}

/*
	HashOf returns the base58 encoding of a SHA-384 hash over the CBOR
	serialization of `v`.  Map keys are sorted, so the result depends
	only on content.
*/
func HashOf(v interface{}) string {
	hasher := sha512.New384()
	codec.NewEncoder(hasher, cborHandle).MustEncode(v)
	return misc.Base58Encode(hasher.Sum(nil))
}

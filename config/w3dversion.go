package config

import "sync/atomic"

var strictVersion int32

// SetStrictVersion makes decoders fail on chunk versions newer than the ones
// they know instead of logging a warning and decoding with the known layout.
func SetStrictVersion(strict bool) {
	var v int32
	if strict {
		v = 1
	}
	atomic.StoreInt32(&strictVersion, v)
}

func StrictVersion() bool {
	return atomic.LoadInt32(&strictVersion) != 0
}

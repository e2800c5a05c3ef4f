package compile

import (
	"crypto/rand"
	"encoding/binary"
)

// maxMotionSeed is the motion sampler's inclusive seed ceiling; the engine
// rejects larger values for that node kind.
const maxMotionSeed = 2147483646

// resolveSeed returns seed unchanged when the caller supplied one, or a
// fresh random draw when seed is negative. Random seeds are 32 bits, like
// the engine's own randomizer.
func resolveSeed(seed int64) int64 {
	if seed >= 0 {
		return seed
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; there is no sane fallback for generation seeds.
		panic(err)
	}
	return int64(binary.BigEndian.Uint32(buf[:]))
}

// capMotionSeed folds a seed into the motion sampler's accepted range.
func capMotionSeed(seed int64) int64 {
	return seed % (maxMotionSeed + 1)
}

package store

import "encoding/binary"

// Keys of the committed cells and the bet history.
var (
	phaseKey    = []byte("phase")   // -> uint64 RLP
	oracleKey   = []byte("oracle")  // -> public key bytes RLP
	fixtureKey  = []byte("fixture") // -> fixtureRecord RLP, absent before the first fixture
	statusKey   = []byte("status")  // -> statusRecord RLP, absent until attested
	rootKey     = []byte("root")    // -> 32-byte root RLP
	betCountKey = []byte("bets")    // -> uint64 RLP

	betPrefix = []byte("bet/") // bet/ + seq (8 bytes BE) -> placementRecord RLP
)

// betKey = betPrefix + seq
func betKey(seq uint64) []byte {
	enc := make([]byte, len(betPrefix)+8)
	copy(enc, betPrefix)
	binary.BigEndian.PutUint64(enc[len(betPrefix):], seq)
	return enc
}

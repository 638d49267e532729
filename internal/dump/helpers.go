package dump

import (
	"fmt"
	"math/big"
	"strconv"
)

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// decodeBase36SHA1 decodes a MediaWiki dump <sha1> value (base-36,
// lowercase) into its 160-bit value, split into three big-endian words of
// 8, 8, and 4 bytes for compact at-rest storage.
func decodeBase36SHA1(s string) ([3]uint64, error) {
	if s == "" {
		return [3]uint64{}, fmt.Errorf("empty sha1")
	}
	n, ok := new(big.Int).SetString(s, 36)
	if !ok {
		return [3]uint64{}, fmt.Errorf("sha1 %q is not valid base36", s)
	}
	buf := n.Bytes()
	if len(buf) > 20 {
		return [3]uint64{}, fmt.Errorf("sha1 %q decodes to more than 160 bits", s)
	}
	var full [20]byte
	copy(full[20-len(buf):], buf)

	var words [3]uint64
	for i := 0; i < 8; i++ {
		words[0] = words[0]<<8 | uint64(full[i])
	}
	for i := 8; i < 16; i++ {
		words[1] = words[1]<<8 | uint64(full[i])
	}
	for i := 16; i < 20; i++ {
		words[2] = words[2]<<8 | uint64(full[i])
	}
	return words, nil
}

// EncodeBase36SHA1 is the inverse of decodeBase36SHA1, exported for tests
// and for callers that need to present the canonical dump representation.
func EncodeBase36SHA1(words [3]uint64) string {
	var full [20]byte
	for i := 0; i < 8; i++ {
		full[7-i] = byte(words[0] >> (8 * i))
	}
	for i := 0; i < 8; i++ {
		full[15-i] = byte(words[1] >> (8 * i))
	}
	for i := 0; i < 4; i++ {
		full[19-i] = byte(words[2] >> (8 * i))
	}
	n := new(big.Int).SetBytes(full[:])
	return n.Text(36)
}

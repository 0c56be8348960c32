package rng

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

const (
	chachaBlockSize = 64
	chachaBufBlocks = 8
	// one nonce is good for 2^32 blocks of keystream
	chachaBlocksPerNonce = 1 << 32
)

// ChaCha20 draws words from a ChaCha20 keystream whose key and nonce are
// derived from the seed. It is not used for secrecy, only because its output
// is of high statistical quality and cheap to produce in bulk.
type ChaCha20 struct {
	stream *chacha20.Cipher
	key    [chacha20.KeySize]byte
	nonce  [chacha20.NonceSize]byte
	buf    [chachaBlockSize * chachaBufBlocks]byte
	pos    int
	blocks uint64
}

// NewChaCha20 creates a ChaCha20 keystream source seeded with seed.
func NewChaCha20(seed uint64) (*ChaCha20, error) {
	c := &ChaCha20{}
	sm := NewSplitMix64(seed)
	for i := 0; i < len(c.key); i += 8 {
		binary.LittleEndian.PutUint64(c.key[i:], sm.Uint64())
	}
	// 12-byte nonce: 8 bytes from the mixer, the last 4 count rekeys.
	binary.LittleEndian.PutUint64(c.nonce[:8], sm.Uint64())
	if err := c.rekey(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ChaCha20) rekey() error {
	stream, err := chacha20.NewUnauthenticatedCipher(c.key[:], c.nonce[:])
	if err != nil {
		return err
	}
	c.stream = stream
	c.blocks = 0
	c.pos = len(c.buf)
	return nil
}

func (c *ChaCha20) refill() {
	if c.blocks+chachaBufBlocks > chachaBlocksPerNonce {
		n := binary.LittleEndian.Uint32(c.nonce[8:])
		binary.LittleEndian.PutUint32(c.nonce[8:], n+1)
		// key and nonce sizes are fixed, so this cannot fail
		if err := c.rekey(); err != nil {
			panic(err)
		}
	}
	clear(c.buf[:])
	c.stream.XORKeyStream(c.buf[:], c.buf[:])
	c.blocks += chachaBufBlocks
	c.pos = 0
}

// Uint64 implements Source.
func (c *ChaCha20) Uint64() uint64 {
	if c.pos+8 > len(c.buf) {
		c.refill()
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v
}

package domain

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Embeddings are persisted as base64 text over little-endian float32 words.
// Text encoding keeps the column storage-layer safe; the binary layout makes
// the round trip bit-exact.

// EncodeEmbedding serializes an embedding vector for storage.
func EncodeEmbedding(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeEmbedding deserializes a stored embedding. It fails on malformed
// base64 or a payload that is not a whole number of float32 words.
func DecodeEmbedding(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("decode embedding: %d bytes is not a float32 vector", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

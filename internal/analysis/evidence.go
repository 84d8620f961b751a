// internal/analysis/evidence.go
package analysis

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// EvidenceCodec compresses frame evidence held in the event queue so that
// queued frames bound memory instead of growing with raw image size.
type EvidenceCodec struct {
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	encoderOnce sync.Once
	decoderOnce sync.Once
	encoderErr  error
	decoderErr  error
}

// NewEvidenceCodec creates a codec
func NewEvidenceCodec() *EvidenceCodec {
	return &EvidenceCodec{}
}

func (c *EvidenceCodec) getEncoder() (*zstd.Encoder, error) {
	c.encoderOnce.Do(func() {
		c.encoder, c.encoderErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1))
	})
	return c.encoder, c.encoderErr
}

func (c *EvidenceCodec) getDecoder() (*zstd.Decoder, error) {
	c.decoderOnce.Do(func() {
		c.decoder, c.decoderErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1))
	})
	return c.decoder, c.decoderErr
}

// Compress compresses a frame payload.
func (c *EvidenceCodec) Compress(data []byte) ([]byte, error) {
	enc, err := c.getEncoder()
	if err != nil {
		return nil, fmt.Errorf("analysis: create encoder: %w", err)
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress restores a frame payload.
func (c *EvidenceCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := c.getDecoder()
	if err != nil {
		return nil, fmt.Errorf("analysis: create decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("analysis: decompress evidence: %w", err)
	}
	return out, nil
}

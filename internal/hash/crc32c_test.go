package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, appendix B.4.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestNewCRC32C_Streaming(t *testing.T) {
	payload := []byte(`{"quantile_gap":10,"max_depth":2}`)

	h := NewCRC32C()
	_, _ = h.Write(payload[:7])
	_, _ = h.Write(payload[7:])

	assert.Equal(t, CRC32C(payload), h.Sum32())
}

package shopcache

import (
	"bytes"
	"encoding/json"
	"sync"
)

// keyEncoderPool is a wrapper around sync.Pool holding buffers for key serialization.
type keyEncoderPool struct {
	pool *sync.Pool
}

// keyEncoder serializes key parts into a reusable buffer.
type keyEncoder struct {
	buf *bytes.Buffer
	enc *json.Encoder
}

// newKeyEncoderPool creates a new keyEncoderPool.
func newKeyEncoderPool() *keyEncoderPool {
	return &keyEncoderPool{
		pool: &sync.Pool{
			New: func() any {
				buf := new(bytes.Buffer)
				enc := json.NewEncoder(buf)
				enc.SetEscapeHTML(false)

				return &keyEncoder{buf: buf, enc: enc}
			},
		},
	}
}

// Get returns an encoder from the pool.
func (w *keyEncoderPool) Get() *keyEncoder {
	return w.pool.Get().(*keyEncoder) //nolint:forcetypeassert // pool only holds *keyEncoder
}

// Put puts an encoder in the pool.
func (w *keyEncoderPool) Put(v *keyEncoder) {
	v.buf.Reset()
	w.pool.Put(v)
}

// encode returns the canonical form of a single key part.
func (e *keyEncoder) encode(part any) (string, error) {
	e.buf.Reset()
	if err := e.enc.Encode(part); err != nil {
		return "", err
	}

	// Encoder terminates every value with a newline.
	return string(bytes.TrimSuffix(e.buf.Bytes(), []byte{'\n'})), nil
}

//nolint:gochecknoglobals // shared by all caches, holds no state between calls
var keyEncoders = newKeyEncoderPool()

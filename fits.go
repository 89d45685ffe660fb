/* SPDX-License-Identifier: Apache-2.0
 *
 * Copyright 2023 Damian Peckett <damian@peckett>.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fits

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/goburrow/cache"
)

const maxCachedPayloads = 256

// Mode selects how a Container was opened, mirroring the open/os.OpenFile
// distinction the teacher's Image.Open makes between read-only and
// read-write access. Attempting to mutate (RemoveHdu) or write out
// (WriteTo) a ReadOnly container is rejected up front with
// InvariantViolation rather than discovered at write time.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// OpenOption configures Open/FromReader, mirroring the teacher's own
// functional-option pattern for tuning goburrow/cache
// (cache.WithMaximumSize passed to cache.NewLoadingCache in qcow2.go).
type OpenOption func(*openConfig)

type openConfig struct {
	cacheSize int
	eager     bool
}

func newOpenConfig(opts []OpenOption) openConfig {
	cfg := openConfig{cacheSize: maxCachedPayloads}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCacheSize overrides the number of decoded payloads kept resident at
// once, mirroring the teacher's maxCachedTables constant.
func WithCacheSize(n int) OpenOption {
	return func(c *openConfig) { c.cacheSize = n }
}

// WithEagerDecode materializes every image HDU's payload during Open or
// FromReader instead of deferring decode until first access. Header reads
// otherwise never force payload decode (spec.md §4.5 Lazy materialization).
func WithEagerDecode() OpenOption {
	return func(c *openConfig) { c.eager = true }
}

// Container is the top-level FITS value: an ordered sequence of HDUs,
// indexed from 0 (the primary HDU), read from a single random-access
// stream. It owns the stream and every HDU derived from it.
type Container struct {
	mu      sync.RWMutex
	f       *os.File
	mode    Mode
	br      *BlockReader
	hdus    []*Hdu
	payload cache.LoadingCache
}

// Open opens the FITS file at path for reading, or reading and writing.
func Open(path string, mode Mode, opts ...OpenOption) (*Container, error) {
	flag := os.O_RDONLY
	if mode == ReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, newErr(KindIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, newErr(KindIO, err)
	}

	c, err := newContainer(f, info.Size(), mode, newOpenConfig(opts), nil)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

// readerAt adapts an io.Reader that does not support random access by
// buffering it entirely into memory, per the optional non-seekable input
// mode (spec.md §6).
type readerAt struct {
	data []byte
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// FromReader reads a complete FITS stream from r, buffering it into memory
// first. The returned Container has no backing file and is always opened
// ReadOnly: RemoveHdu and WriteTo are rejected on it, since there is no
// path to atomically rename a rewritten copy over. Open a real file with
// ReadWrite if mutation is needed.
func FromReader(r io.Reader, opts ...OpenOption) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newErr(KindIO, err)
	}
	ra := &readerAt{data: data}
	return newContainer(nil, int64(len(data)), ReadOnly, newOpenConfig(opts), ra)
}

// newContainer runs the top-level read algorithm (spec.md §4.7): parse
// header, classify, skip or lazily defer payload, advance the block
// cursor, repeat until EOF. ra overrides the read source (used by
// FromReader's in-memory buffer); it is nil when reading from f directly.
func newContainer(f *os.File, size int64, mode Mode, cfg openConfig, ra io.ReaderAt) (*Container, error) {
	var source io.ReaderAt = f
	if ra != nil {
		source = ra
	}

	br, err := NewBlockReader(source, size)
	if err != nil {
		return nil, err
	}

	cacheSize := cfg.cacheSize
	if cacheSize <= 0 {
		cacheSize = maxCachedPayloads
	}

	c := &Container{f: f, mode: mode, br: br}
	c.payload = cache.NewLoadingCache(c.loadPayload, cache.WithMaximumSize(cacheSize))

	var block int64
	total := br.NumBlocks()
	index := 0
	for block < total {
		hdr, headerBlocks, err := ReadHeader(br, block)
		if err != nil {
			return nil, err
		}

		kind, err := Classify(hdr, index, index == 0)
		if err != nil {
			return nil, err
		}

		payloadBytes := kind.PayloadByteSize()
		payloadBlocks := blockCount(payloadBytes)
		if payloadBytes == 0 {
			payloadBlocks = 0
		}

		if block+headerBlocks+payloadBlocks > total {
			return nil, newErr(KindTruncated, fmt.Errorf("hdu %d claims %d blocks past end of stream", index, block+headerBlocks+payloadBlocks-total)).withHdu(index)
		}

		c.hdus = append(c.hdus, &Hdu{
			header:      hdr,
			kind:        kind,
			dataBlock:   block + headerBlocks,
			dataBlocks:  payloadBlocks,
			payloadSize: payloadBytes,
		})

		block += headerBlocks + payloadBlocks
		index++
	}

	if block != total {
		return nil, newErr(KindTruncated, fmt.Errorf("trailing %d blocks do not belong to any HDU", total-block))
	}
	if len(c.hdus) == 0 {
		return nil, newErr(KindNotAFitsFile, fmt.Errorf("stream contains no HDUs"))
	}

	if cfg.eager {
		for i, hdu := range c.hdus {
			if hdu.kind.Tag != KindImage {
				continue
			}
			if _, err := c.payload.Get(i); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// loadPayload is the cache.LoadingCache loader: it decodes or stashes the
// raw bytes of exactly one HDU's data unit, on demand. The result stays
// cached until the cache's size bound evicts it or RemoveHdu invalidates
// the cache; the next access after that decodes the data unit again.
func (c *Container) loadPayload(k cache.Key) (cache.Value, error) {
	idx := k.(int)
	hdu := c.hdus[idx]

	raw, err := hdu.readRaw(c.br)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			return nil, fe.withHdu(idx)
		}
		return nil, err
	}

	if hdu.kind.Tag != KindImage {
		p := Payload{Raw: raw}
		hdu.cachedPayload.Store(&p)
		return p, nil
	}

	img, err := DecodeImage(raw, hdu.header, hdu.kind)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			return nil, fe.withHdu(idx)
		}
		return nil, err
	}
	p := Payload{IsImage: true, Image: img}
	hdu.cachedPayload.Store(&p)
	return p, nil
}

// NumHdus returns the number of HDUs in the container.
func (c *Container) NumHdus() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hdus)
}

// Hdu returns the HDU at index i. The returned value is owned by the
// container; callers requesting a decoded payload should use Payload.
func (c *Container) Hdu(i int) (*Hdu, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.hdus) {
		return nil, newErr(KindInvariantViolation, fmt.Errorf("hdu index %d out of range [0,%d)", i, len(c.hdus)))
	}
	return c.hdus[i], nil
}

// Payload returns the decoded (or raw, for non-image kinds) payload of the
// HDU at index i, materializing it on first access.
func (c *Container) Payload(i int) (Payload, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.hdus) {
		return Payload{}, newErr(KindInvariantViolation, fmt.Errorf("hdu index %d out of range [0,%d)", i, len(c.hdus)))
	}
	v, err := c.payload.Get(i)
	if err != nil {
		return Payload{}, err
	}
	return v.(Payload), nil
}

// Get returns the first HDU whose EXTNAME matches name, and its index.
func (c *Container) Get(name string) (*Hdu, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, h := range c.hdus {
		if h.Name() == name {
			return h, i, nil
		}
	}
	return nil, -1, newErr(KindMissingStructural, fmt.Errorf("no HDU named %q", name))
}

// RemoveHdu detaches and returns the HDU at index i, shifting subsequent
// indices down by one. If i == 0, the new index-0 HDU's header must still
// be a valid primary header (SIMPLE=T); if it is not, the removal is
// rejected with InvalidPrimaryAfterRemove and the container is left
// unchanged.
func (c *Container) RemoveHdu(i int) (*Hdu, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ReadWrite {
		return nil, newErr(KindInvariantViolation, fmt.Errorf("cannot remove an hdu from a read-only container"))
	}
	if i < 0 || i >= len(c.hdus) {
		return nil, newErr(KindInvariantViolation, fmt.Errorf("hdu index %d out of range [0,%d)", i, len(c.hdus)))
	}
	if len(c.hdus) == 1 {
		return nil, newErr(KindInvalidPrimaryAfterRemove, fmt.Errorf("cannot remove the only HDU in a container"))
	}

	if i == 0 {
		next := c.hdus[1]
		simple, ok := next.header.Get("SIMPLE")
		if !ok || simple.Value.Kind != ValueLogical || !simple.Value.Bool {
			return nil, newErr(KindInvalidPrimaryAfterRemove, fmt.Errorf("hdu 1 is not a valid primary header (missing SIMPLE=T)"))
		}
	}

	removed := c.hdus[i]
	c.hdus = append(c.hdus[:i], c.hdus[i+1:]...)
	c.payload.InvalidateAll()
	return removed, nil
}

// WriteTo serializes the container to path: for each HDU, header bytes
// padded to a block boundary, then payload bytes padded to a block
// boundary. The write is atomic at the file level: it writes to a temp
// file in the same directory and renames it into place, so a crash or
// error mid-write never leaves a half-written FITS file behind
// (spec.md §4.7, grounded on the teacher's lay-out-then-rename discipline
// in writeHeader).
func (c *Container) WriteTo(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.mode != ReadWrite {
		return newErr(KindInvariantViolation, fmt.Errorf("cannot write out a read-only container"))
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fits-*.tmp")
	if err != nil {
		return newErr(KindIO, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	bw := NewBlockWriter(tmp)
	for i, hdu := range c.hdus {
		headerBytes, err := hdu.header.Marshal()
		if err != nil {
			_ = tmp.Close()
			return err
		}
		if err := bw.AppendBlocks(headerBytes); err != nil {
			_ = tmp.Close()
			return err
		}

		if hdu.dataBlocks == 0 {
			continue
		}
		raw, err := c.rawPayloadForWrite(i, hdu)
		if err != nil {
			_ = tmp.Close()
			return err
		}
		if err := bw.AppendBlocks(padToBlockSize(raw, 0x00)); err != nil {
			_ = tmp.Close()
			return err
		}
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return newErr(KindIO, err)
	}
	if err := tmp.Close(); err != nil {
		return newErr(KindIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return newErr(KindIO, err)
	}
	return nil
}

// rawPayloadForWrite returns the on-disk bytes for an HDU's payload,
// re-encoding an image whose decoded payload is currently in the cache, or
// reading the raw bytes straight through otherwise (the common case: most
// HDUs in a file being rewritten are never touched).
func (c *Container) rawPayloadForWrite(i int, hdu *Hdu) ([]byte, error) {
	if v, ok := c.payload.GetIfPresent(i); ok {
		p := v.(Payload)
		if p.IsImage {
			return EncodeImage(p.Image, hdu.header)
		}
		return p.Raw, nil
	}
	return hdu.readRaw(c.br)
}

// Close releases the underlying file handle, if any (FromReader-backed
// containers have none).
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	if err := c.f.Close(); err != nil {
		return newErr(KindIO, err)
	}
	return nil
}

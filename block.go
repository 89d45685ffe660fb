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
)

// BlockSize is the fixed FITS framing unit: every header and payload region
// is padded out to a whole number of these.
const BlockSize = 2880

// BlockReader provides random access to a FITS stream in whole-block
// increments, centralizing the 2880-byte alignment discipline so the rest
// of the stack never deals with raw byte offsets.
type BlockReader struct {
	ra     io.ReaderAt
	length int64
}

// NewBlockReader wraps a random-access source of known length. length must
// be a multiple of BlockSize; pass the file's size as reported by the OS.
func NewBlockReader(ra io.ReaderAt, length int64) (*BlockReader, error) {
	if length%BlockSize != 0 {
		return nil, newErr(KindTruncated, fmt.Errorf("stream length %d is not a multiple of %d bytes", length, BlockSize))
	}
	return &BlockReader{ra: ra, length: length}, nil
}

// NumBlocks returns the total number of blocks in the stream.
func (r *BlockReader) NumBlocks() int64 {
	return r.length / BlockSize
}

// ReadBlock reads the block at the given absolute block index.
func (r *BlockReader) ReadBlock(index int64) ([]byte, error) {
	return r.ReadNBlocks(index, 1)
}

// ReadNBlocks reads count contiguous blocks starting at the given index.
func (r *BlockReader) ReadNBlocks(start, count int64) ([]byte, error) {
	if count <= 0 {
		return nil, nil
	}
	offset := start * BlockSize
	n := count * BlockSize
	if offset+n > r.length {
		return nil, newErr(KindTruncated, fmt.Errorf("requested %d bytes at offset %d but stream is only %d bytes", n, offset, r.length)).withOffset(offset)
	}
	buf := make([]byte, n)
	if _, err := r.ra.ReadAt(buf, offset); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, newErr(KindTruncated, err).withOffset(offset)
		}
		return nil, newErr(KindIO, err).withOffset(offset)
	}
	return buf, nil
}

// BlockWriter writes a FITS stream out sequentially, one or more whole
// blocks at a time. It does not support random access: callers build the
// file front-to-back, matching Container.WriteTo's header-then-payload
// emission order.
type BlockWriter struct {
	w      io.Writer
	blocks int64
}

// NewBlockWriter wraps a plain io.Writer (typically a temp file, so the
// caller can rename it into place once writing succeeds).
func NewBlockWriter(w io.Writer) *BlockWriter {
	return &BlockWriter{w: w}
}

// AppendBlocks writes data, whose length must be a multiple of BlockSize,
// at the current write position.
func (w *BlockWriter) AppendBlocks(data []byte) error {
	if len(data)%BlockSize != 0 {
		return newErr(KindInvariantViolation, fmt.Errorf("write of %d bytes is not a multiple of %d", len(data), BlockSize))
	}
	if _, err := w.w.Write(data); err != nil {
		return newErr(KindIO, err).withOffset(w.blocks * BlockSize)
	}
	w.blocks += int64(len(data)) / BlockSize
	return nil
}

// WriteBlock writes a single exactly-BlockSize-byte block, verifying that
// index matches the writer's current position (the only offset a pure
// sequential writer can honor).
func (w *BlockWriter) WriteBlock(index int64, block []byte) error {
	if len(block) != BlockSize {
		return newErr(KindInvariantViolation, fmt.Errorf("block is %d bytes, want %d", len(block), BlockSize))
	}
	if index != w.blocks {
		return newErr(KindInvariantViolation, fmt.Errorf("sequential writer at block %d cannot write block %d", w.blocks, index))
	}
	return w.AppendBlocks(block)
}

// NumBlocks returns how many whole blocks have been written so far.
func (w *BlockWriter) NumBlocks() int64 {
	return w.blocks
}

// padToBlockSize pads data up to the next whole block boundary with fill,
// returning data unchanged if it is already block-aligned.
func padToBlockSize(data []byte, fill byte) []byte {
	rem := len(data) % BlockSize
	if rem == 0 {
		return data
	}
	pad := make([]byte, BlockSize-rem)
	for i := range pad {
		pad[i] = fill
	}
	return append(data, pad...)
}

// blockCount returns ceil(n / BlockSize).
func blockCount(n int64) int64 {
	return (n + BlockSize - 1) / BlockSize
}

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
	"strings"
)

const recordsPerBlock = BlockSize / RecordSize // 36

// Header is an ordered, keyed collection of header records. Insertion order
// is preserved; structural keywords are unique, commentary and CONTINUE
// records are multi-valued.
type Header struct {
	records []Record
	index   map[string]int // structural keyword -> index of its first occurrence
}

// NewHeader returns an empty header (no records, not yet terminated by END).
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// ReadHeader consumes whole blocks from br starting at startBlock until the
// END sentinel is found. It returns the header, the number of blocks
// consumed (always a whole number, per FITS framing), and an error if the
// stream is truncated or a record is malformed.
func ReadHeader(br *BlockReader, startBlock int64) (*Header, int64, error) {
	h := NewHeader()
	var block int64
	for {
		raw, err := br.ReadBlock(startBlock + block)
		if err != nil {
			return nil, 0, err
		}
		block++

		done := false
		for i := 0; i < recordsPerBlock; i++ {
			rec, perr := ParseRecord(raw[i*RecordSize : (i+1)*RecordSize])
			if perr != nil {
				if fe, ok := perr.(*Error); ok {
					return nil, 0, fe.withOffset((startBlock + block - 1) * BlockSize)
				}
				return nil, 0, perr
			}
			if rec.Kind == EndRecord {
				h.records = append(h.records, rec)
				done = true
				break
			}
			h.append(rec)
		}
		if done {
			break
		}
	}
	return h, block, nil
}

// append adds a record to the end of the header, tracking the first
// occurrence of structural (unique) keywords for fast lookup.
func (h *Header) append(rec Record) {
	h.records = append(h.records, rec)
	if rec.Kind == KeywordRecord {
		if _, exists := h.index[rec.Name]; !exists {
			h.index[rec.Name] = len(h.records) - 1
		}
	}
}

// Append adds a record immediately before the END sentinel (or at the end
// if there is none yet).
func (h *Header) Append(rec Record) {
	pos := h.endIndex()
	if pos < 0 {
		h.append(rec)
		return
	}
	h.insertAt(pos, rec)
}

// InsertBefore places rec immediately before the first record named before,
// or appends it if before is not found. Used to satisfy FITS positional
// constraints (e.g. BITPIX must directly follow SIMPLE or XTENSION).
func (h *Header) InsertBefore(before string, rec Record) {
	idx, ok := h.index[before]
	if !ok {
		h.Append(rec)
		return
	}
	h.insertAt(idx, rec)
}

func (h *Header) insertAt(pos int, rec Record) {
	h.records = append(h.records, Record{})
	copy(h.records[pos+1:], h.records[pos:])
	h.records[pos] = rec
	h.reindex()
}

// Replace overwrites the value of the first record named name, or appends
// it if absent.
func (h *Header) Replace(name string, value Value, comment string) {
	if idx, ok := h.index[name]; ok {
		h.records[idx].Value = value
		h.records[idx].Comment = comment
		return
	}
	h.Append(Record{Kind: KeywordRecord, Name: name, Value: value, Comment: comment})
}

// Remove deletes the first structural record named name along with any
// CONTINUE records immediately following it.
func (h *Header) Remove(name string) {
	idx, ok := h.index[name]
	if !ok {
		return
	}
	end := idx + 1
	for end < len(h.records) && h.records[end].Kind == ContinuationRecord {
		end++
	}
	h.records = append(h.records[:idx], h.records[end:]...)
	h.reindex()
}

func (h *Header) reindex() {
	h.index = make(map[string]int)
	for i, rec := range h.records {
		if rec.Kind == KeywordRecord {
			if _, exists := h.index[rec.Name]; !exists {
				h.index[rec.Name] = i
			}
		}
	}
}

func (h *Header) endIndex() int {
	for i, rec := range h.records {
		if rec.Kind == EndRecord {
			return i
		}
	}
	return -1
}

// Get returns the first structural record named name.
func (h *Header) Get(name string) (Record, bool) {
	idx, ok := h.index[name]
	if !ok {
		return Record{}, false
	}
	return h.records[idx], true
}

// Has reports whether a structural keyword is present.
func (h *Header) Has(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Records returns the full ordered record sequence, including the END
// sentinel if present.
func (h *Header) Records() []Record {
	return h.records
}

// Commentary returns every COMMENT/HISTORY/blank-name record, in order.
func (h *Header) Commentary() []Record {
	var out []Record
	for _, rec := range h.records {
		if rec.Kind == CommentaryRecord {
			out = append(out, rec)
		}
	}
	return out
}

// AsString returns the logical string value of a keyword, concatenating any
// CONTINUE records that follow it per the OGIP long-string convention: a
// trailing '&' on each piece (except the last) marks where the next piece
// attaches, and is stripped before concatenation.
func (h *Header) AsString(name string) (string, error) {
	idx, ok := h.index[name]
	if !ok {
		return "", newErr(KindMissingStructural, fmt.Errorf("keyword not present")).withKeyword(name)
	}
	rec := h.records[idx]
	if rec.Value.Kind != ValueString {
		return "", newErr(KindWrongValueKind, fmt.Errorf("value is not a string")).withKeyword(name)
	}
	value := rec.Value.Str
	for i := idx + 1; i < len(h.records) && h.records[i].Kind == ContinuationRecord; i++ {
		value = strings.TrimSuffix(value, "&") + h.records[i].Text
	}
	return value, nil
}

// AsInteger coerces a keyword's value to int64.
func (h *Header) AsInteger(name string) (int64, error) {
	rec, ok := h.Get(name)
	if !ok {
		return 0, newErr(KindMissingStructural, fmt.Errorf("keyword not present")).withKeyword(name)
	}
	switch rec.Value.Kind {
	case ValueInteger:
		return rec.Value.Int, nil
	case ValueReal:
		if rec.Value.Real == float64(int64(rec.Value.Real)) {
			return int64(rec.Value.Real), nil
		}
	}
	return 0, newErr(KindWrongValueKind, fmt.Errorf("value is not an integer")).withKeyword(name)
}

// AsReal coerces a keyword's value to float64.
func (h *Header) AsReal(name string) (float64, error) {
	rec, ok := h.Get(name)
	if !ok {
		return 0, newErr(KindMissingStructural, fmt.Errorf("keyword not present")).withKeyword(name)
	}
	switch rec.Value.Kind {
	case ValueReal:
		return rec.Value.Real, nil
	case ValueInteger:
		return float64(rec.Value.Int), nil
	}
	return 0, newErr(KindWrongValueKind, fmt.Errorf("value is not real")).withKeyword(name)
}

// AsLogical coerces a keyword's value to bool.
func (h *Header) AsLogical(name string) (bool, error) {
	rec, ok := h.Get(name)
	if !ok {
		return false, newErr(KindMissingStructural, fmt.Errorf("keyword not present")).withKeyword(name)
	}
	if rec.Value.Kind != ValueLogical {
		return false, newErr(KindWrongValueKind, fmt.Errorf("value is not logical")).withKeyword(name)
	}
	return rec.Value.Bool, nil
}

// Marshal emits the header as a byte slice padded to a whole number of
// blocks with ASCII space fill, ensuring exactly one END record at the end.
func (h *Header) Marshal() ([]byte, error) {
	records := h.records
	if len(records) == 0 || records[len(records)-1].Kind != EndRecord {
		records = append(append([]Record{}, records...), Record{Kind: EndRecord})
	}

	buf := make([]byte, 0, len(records)*RecordSize)
	for _, rec := range records {
		line, err := EmitRecord(rec)
		if err != nil {
			return nil, err
		}
		buf = append(buf, line...)
	}
	return padToBlockSize(buf, ' '), nil
}

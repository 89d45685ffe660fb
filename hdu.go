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
	"sync/atomic"
)

// Hdu binds a parsed header to the location of its data unit on disk. The
// payload itself is not decoded here: FitsContainer lazily materializes it
// through a shared cache, since most callers only ever touch one or two
// HDUs out of a file that may carry dozens (spec.md §4.7).
type Hdu struct {
	header        *Header
	kind          HduKind
	dataBlock     int64 // absolute block index where the data unit begins
	dataBlocks    int64 // number of blocks the (padded) data unit occupies
	payloadSize   int64 // unpadded payload size in bytes
	cachedPayload atomic.Pointer[Payload]
}

// Header returns the HDU's header.
func (h *Hdu) Header() *Header {
	return h.header
}

// Kind returns the classification computed when the HDU was opened.
func (h *Hdu) Kind() HduKind {
	return h.kind
}

// Name returns the HDU's EXTNAME, or "" if it has none (always true for
// the primary HDU unless explicitly set).
func (h *Hdu) Name() string {
	name, err := h.header.AsString("EXTNAME")
	if err != nil {
		return ""
	}
	return name
}

// IntoParts consumes the Hdu, returning its header and, if the payload was
// already materialized through Container.Payload, the decoded payload.
// Unlike Header()/payload access through Container, it never forces a
// lazy decode (spec.md §4.6: into_parts() -> (Header, Option<Payload>)).
// Callers should treat h as detached afterwards, typically pairing this
// with Container.RemoveHdu.
func (h *Hdu) IntoParts() (*Header, *Payload) {
	return h.header, h.cachedPayload.Load()
}

// readRaw reads the HDU's unpadded payload bytes from br.
func (h *Hdu) readRaw(br *BlockReader) ([]byte, error) {
	if h.dataBlocks == 0 {
		return nil, nil
	}
	buf, err := br.ReadNBlocks(h.dataBlock, h.dataBlocks)
	if err != nil {
		return nil, err
	}
	if h.payloadSize > int64(len(buf)) {
		return nil, newErr(KindTruncated, fmt.Errorf("payload claims %d bytes but only %d available", h.payloadSize, len(buf)))
	}
	return buf[:h.payloadSize], nil
}

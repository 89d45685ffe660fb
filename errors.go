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

import "fmt"

// Kind discriminates the taxonomy of errors a FITS operation can fail with.
type Kind int

const (
	KindIO Kind = iota
	KindTruncated
	KindNotAFitsFile
	KindInvalidRecord
	KindMissingStructural
	KindWrongValueKind
	KindUnsupportedBitpix
	KindUnsupportedExtension
	KindUnsupportedConversion
	KindInvariantViolation
	KindInvalidPrimaryAfterRemove
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindTruncated:
		return "Truncated"
	case KindNotAFitsFile:
		return "NotAFitsFile"
	case KindInvalidRecord:
		return "InvalidRecord"
	case KindMissingStructural:
		return "MissingStructural"
	case KindWrongValueKind:
		return "WrongValueKind"
	case KindUnsupportedBitpix:
		return "UnsupportedBitpix"
	case KindUnsupportedExtension:
		return "UnsupportedExtension"
	case KindUnsupportedConversion:
		return "UnsupportedConversion"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindInvalidPrimaryAfterRemove:
		return "InvalidPrimaryAfterRemove"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every exported operation in
// this module. It carries enough context (byte offset, HDU index, keyword
// name) for a caller to pinpoint the offending record without re-parsing.
type Error struct {
	Kind     Kind
	Offset   int64  // byte offset into the file, -1 if not applicable
	HduIndex int    // HDU index, -1 if not applicable
	Keyword  string // keyword name, "" if not applicable
	Err      error  // wrapped cause, nil if none
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Keyword != "" {
		msg += fmt.Sprintf(" (keyword %q)", e.Keyword)
	}
	if e.HduIndex >= 0 {
		msg += fmt.Sprintf(" (hdu %d)", e.HduIndex)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, err error) *Error {
	return &Error{Kind: kind, Offset: -1, HduIndex: -1, Err: err}
}

func (e *Error) withOffset(offset int64) *Error {
	e.Offset = offset
	return e
}

func (e *Error) withHdu(idx int) *Error {
	e.HduIndex = idx
	return e
}

func (e *Error) withKeyword(name string) *Error {
	e.Keyword = name
	return e
}

// IsKind reports whether err, or any error it wraps, is an *Error of the
// given Kind. Kind is a plain int and not itself an error, so
// errors.Is(err, fits.KindTruncated) does not match; IsKind is the
// supported comparison helper.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok {
			if fe.Kind == kind {
				return true
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package qstring recognises and decodes Qt QString contents blocks inside
// a region.Store. A QString holds a pointer to a separately allocated
// contents block:
//
//	offset  width  meaning
//	0       16     opaque ref-count/flags header
//	16      1      0x18 tag byte
//	17      7      zero
//	4       4      (within header) logical character count N, uint32
//	24      2*N    UTF-16LE code units
//	24+2*N  2      terminating zero
//
// Detection is always by inspecting the pointed-to bytes, never by
// trusting the pointer's surrounding type tags: once a QString is
// destroyed its pointer may be repointed at garbage.
package qstring

import (
	"encoding/binary"
	"regexp"
	"unicode/utf16"

	"github.com/dfir-oss/tgcarve/region"
)

const (
	// HeaderSize is the size of the opaque ref-count/flags + tag header.
	HeaderSize = 24
	// CountOffset is the offset of the uint32 character count within the
	// contents block (it lives inside the opaque header).
	CountOffset = 4

	errDecodeText = "Error when decoding from UTF-16"
)

// Strict is the tightened QString-contents pattern: it additionally
// requires the ref-count/flags header to look like a plausible small Qt
// flags word. Preserved as a policy knob; the engine defaults to Lax.
var Strict = regexp.MustCompile(`(?s)^[\x00\x01\x02]\x00{3}.\x00{3}.\x00{2}[\x00\x80].{4}\x18\x00{7}.*?\x00{2}`)

// Lax is the pattern actually used by the engine: it only requires the
// fixed tag byte and trailing zero run, ignoring the header entirely.
var Lax = regexp.MustCompile(`(?s)^.{16}\x18\x00{7}.*?\x00{2}`)

// laxScan is the unanchored form of Lax, used to find the next occurrence
// starting at or after a given address rather than requiring an exact
// match at that address.
var laxScan = regexp.MustCompile(`(?s).{16}\x18\x00{7}.*?\x00{2}`)

// IsAddressOfContents reports whether addr is the exact start of a
// QString contents block, per the lax pattern.
func IsAddressOfContents(st *region.Store, addr uint64) bool {
	return st.MatchAt(Lax, addr)
}

// IsAddressOfContentsStrict is the tightened variant using Strict.
func IsAddressOfContentsStrict(st *region.Store, addr uint64) bool {
	return st.MatchAt(Strict, addr)
}

// ExtractText decodes the string at the first lax-pattern match at or
// after addr, within addr's containing region. A failed UTF-16 decode
// never aborts: it yields the sentinel string instead.
func ExtractText(st *region.Store, addr uint64) (string, bool) {
	m, ok := st.FindFrom(laxScan, addr)
	if !ok {
		return "", false
	}
	return decodeAt(st, m.Address), true
}

// decodeAt decodes the text of a QString contents block known to start at
// addr (addr itself, not "at or after").
func decodeAt(st *region.Store, addr uint64) string {
	countBytes, ok := st.Read(addr+CountOffset, 4)
	if !ok {
		return errDecodeText
	}
	n := binary.LittleEndian.Uint32(countBytes)
	textBytes, ok := st.Read(addr+HeaderSize, uint64(n)*2)
	if !ok {
		return errDecodeText
	}
	return decodeUTF16LE(textBytes)
}

func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		return errDecodeText
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i : 2*i+2])
	}
	return string(utf16.Decode(units))
}

// ExtractTextAt decodes the string whose contents block begins exactly at
// addr (no search), returning ok=false if addr is not a valid contents
// block start.
func ExtractTextAt(st *region.Store, addr uint64) (string, bool) {
	if !IsAddressOfContents(st, addr) {
		return "", false
	}
	return decodeAt(st, addr), true
}

// Useful filters every use site applies: empty and single-NUL strings are
// never treated as recovered.
func Useful(s string) bool {
	return s != "" && s != "\x00"
}

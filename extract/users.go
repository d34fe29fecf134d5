/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package extract drives the scanner and recognisers to enumerate
// candidate raw object byte windows for each artifact kind, and to walk
// near-neighbour objects at a known stride.
package extract

import (
	"regexp"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/qstring"
	"github.com/dfir-oss/tgcarve/recognise"
	"github.com/dfir-oss/tgcarve/region"
)

// phonePattern matches a UTF-16LE run of 7-16 digits followed by a
// terminating double-zero, the way a phone number QString's contents
// look in memory.
var phonePattern = regexp.MustCompile(`(?s)(\d\x00){7,16}\x00{2}`)

const qstringContentsHeaderSize = 24

// Users enumerates every candidate UserData base address, by anchoring on
// phone-number text (phase A) and then walking the contiguous allocation
// neighbourhood outward from every anchor hit (phase B).
func Users(st *region.Store, tbl offsets.Table) []uint64 {
	found := newAddrSet()

	anchorUsers(st, tbl, found)
	walkUserNeighbours(st, tbl, found)

	return found.slice()
}

// anchorUsers implements phase A: scan for phone-number text, confirm its
// QString contents header sits 24 bytes before the match, then locate
// every pointer in memory that references that contents block and derive
// a user base address from each.
func anchorUsers(st *region.Store, tbl offsets.Table, found *addrSet) {
	sc := st.Scan(phonePattern)
	for sc.Next() {
		hit := sc.Match().Address
		if hit < qstringContentsHeaderSize {
			continue
		}
		contentsAddr := hit - qstringContentsHeaderSize
		if !qstring.IsAddressOfContents(st, contentsAddr) {
			continue
		}
		for _, ref := range st.FindLittleEndianU64(contentsAddr) {
			if ref < tbl.User.BytesAbovePhone {
				continue
			}
			userAddr := ref - tbl.User.BytesAbovePhone
			if found.has(userAddr) {
				continue
			}
			if isCompleteUserCandidate(st, tbl, userAddr) {
				found.add(userAddr)
			}
		}
	}
}

// walkUserNeighbours implements phase B: users are allocated contiguously
// at a fixed stride, so every known user base is walked forward and
// backward until a candidate fails to validate.
func walkUserNeighbours(st *region.Store, tbl offsets.Table, found *addrSet) {
	seed := found.slice()
	for _, base := range seed {
		walkDirection(st, tbl, found, base, tbl.UserStride)
		walkDirection(st, tbl, found, base, ^tbl.UserStride+1) // -stride, two's complement
	}
}

func walkDirection(st *region.Store, tbl offsets.Table, found *addrSet, base uint64, stride uint64) {
	cur := base + stride
	for {
		if found.has(cur) {
			cur += stride
			continue
		}
		if !isCompleteUserCandidate(st, tbl, cur) {
			return
		}
		found.add(cur)
		cur += stride
	}
}

func isCompleteUserCandidate(st *region.Store, tbl offsets.Table, addr uint64) bool {
	if _, ok := st.Read(addr, tbl.UserSubpatternSize()); !ok {
		return false
	}
	return recognise.IsRawUser(st, tbl, addr)
}

type addrSet struct {
	seen  map[uint64]bool
	order []uint64
}

func newAddrSet() *addrSet {
	return &addrSet{seen: make(map[uint64]bool)}
}

func (s *addrSet) has(addr uint64) bool {
	return s.seen[addr]
}

func (s *addrSet) add(addr uint64) {
	if s.seen[addr] {
		return
	}
	s.seen[addr] = true
	s.order = append(s.order, addr)
}

func (s *addrSet) slice() []uint64 {
	out := make([]uint64, len(s.order))
	copy(out, s.order)
	return out
}

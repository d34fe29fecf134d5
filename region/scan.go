/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package region

import (
	"bytes"
	"regexp"
)

// Match is one scan hit: the matched bytes and their absolute virtual
// address.
type Match struct {
	Data    []byte
	Address uint64
}

// Scanner walks every match of a pattern across a Store's regions, in
// enumeration order, yielding non-overlapping, leftmost-first matches
// within each region. It mirrors the bufio.Scanner idiom: call Next until
// it returns false, then read Match.
type Scanner struct {
	store     *Store
	regionIdx int
	off       int
	cur       Match

	findNext func(data []byte) (start, end int)
}

// Scan returns a Scanner over every match of re.
func (s *Store) Scan(re *regexp.Regexp) *Scanner {
	return &Scanner{
		store: s,
		findNext: func(data []byte) (int, int) {
			loc := re.FindIndex(data)
			if loc == nil {
				return -1, -1
			}
			return loc[0], loc[1]
		},
	}
}

// ScanLiteral returns a Scanner over every occurrence of needle, using a
// plain byte search rather than a compiled regular expression.
func (s *Store) ScanLiteral(needle []byte) *Scanner {
	return &Scanner{
		store: s,
		findNext: func(data []byte) (int, int) {
			idx := bytes.Index(data, needle)
			if idx < 0 {
				return -1, -1
			}
			return idx, idx + len(needle)
		},
	}
}

// Next advances to the next match, returning false once every region has
// been exhausted.
func (sc *Scanner) Next() bool {
	regions := sc.store.regions
	for sc.regionIdx < len(regions) {
		r := regions[sc.regionIdx]
		if sc.off >= len(r.data) {
			sc.regionIdx++
			sc.off = 0
			continue
		}
		start, end := sc.findNext(r.data[sc.off:])
		if start < 0 {
			sc.regionIdx++
			sc.off = 0
			continue
		}
		matchStart := sc.off + start
		matchEnd := sc.off + end
		sc.cur = Match{
			Data:    r.data[matchStart:matchEnd],
			Address: r.Base + uint64(matchStart),
		}
		sc.off = matchEnd
		return true
	}
	return false
}

// Match returns the most recent match found by Next.
func (sc *Scanner) Match() Match {
	return sc.cur
}

// RegionContaining returns the region that addr falls inside, if any.
func (s *Store) RegionContaining(addr uint64) (*Region, bool) {
	r := s.regionFor(addr)
	if r == nil {
		return nil, false
	}
	return r, true
}

// MatchAt reports whether re matches starting exactly at addr, entirely
// within addr's containing region.
func (s *Store) MatchAt(re *regexp.Regexp, addr uint64) bool {
	r, ok := s.RegionContaining(addr)
	if !ok {
		return false
	}
	return r.matchAt(re, addr)
}

// FindFrom returns the first match of re at or after addr, bounded to
// addr's containing region.
func (s *Store) FindFrom(re *regexp.Regexp, addr uint64) (Match, bool) {
	r, ok := s.RegionContaining(addr)
	if !ok {
		return Match{}, false
	}
	return r.findFrom(re, addr)
}

func (r *Region) matchAt(re *regexp.Regexp, addr uint64) bool {
	if addr < r.Base || addr >= r.Base+r.Size {
		return false
	}
	off := addr - r.Base
	loc := re.FindIndex(r.data[off:])
	return loc != nil && loc[0] == 0
}

func (r *Region) findFrom(re *regexp.Regexp, addr uint64) (Match, bool) {
	if addr < r.Base || addr > r.Base+r.Size {
		return Match{}, false
	}
	off := addr - r.Base
	loc := re.FindIndex(r.data[off:])
	if loc == nil {
		return Match{}, false
	}
	start := off + uint64(loc[0])
	end := off + uint64(loc[1])
	return Match{Data: r.data[start:end], Address: r.Base + start}, true
}

// FindLittleEndianU64 returns every address where the 8-byte little-endian
// encoding of v occurs across the store, enumeration order, non-overlapping.
func (s *Store) FindLittleEndianU64(v uint64) []uint64 {
	needle := make([]byte, 8)
	for i := 0; i < 8; i++ {
		needle[i] = byte(v >> (8 * i))
	}
	var out []uint64
	sc := s.ScanLiteral(needle)
	for sc.Next() {
		out = append(out, sc.Match().Address)
	}
	return out
}

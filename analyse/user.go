/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package analyse parses raw candidate byte windows located by the
// extractors into typed records: decoding endianness, resolving pointers
// into further objects, and never treating a failed lookup as fatal.
package analyse

import (
	"encoding/binary"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/qstring"
	"github.com/dfir-oss/tgcarve/record"
	"github.com/dfir-oss/tgcarve/recognise"
	"github.com/dfir-oss/tgcarve/region"
)

func readPtr(st *region.Store, addr, offset uint64) (uint64, bool) {
	raw, ok := st.Read(addr+offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(raw), true
}

func readTri(st *region.Store, addr, offset uint64) record.Tri {
	b, ok := st.Read(addr+offset, 1)
	if !ok {
		return record.TriUnset
	}
	switch b[0] {
	case 0x01:
		return record.TriTrue
	case 0x02:
		return record.TriFalse
	}
	return record.TriUnset
}

func readPtrFlag(st *region.Store, addr, offset uint64) record.Tri {
	v, ok := readPtr(st, addr, offset)
	if !ok {
		return record.TriUnset
	}
	if v != 0 {
		return record.TriTrue
	}
	return record.TriFalse
}

func decodeStringField(st *region.Store, addr, offset uint64) (string, bool) {
	target, ok := readPtr(st, addr, offset)
	if !ok {
		return "", false
	}
	s, ok := qstring.ExtractTextAt(st, target)
	if !ok || !qstring.Useful(s) {
		return "", false
	}
	return s, true
}

// User analyses a candidate UserData object at addr. It follows the same
// five pointer fields is_raw_user validates (inherited name, then
// firstname/lastname/username/phone): the first one that decodes becomes
// the display name, the rest feed the Strings list for the factory to
// disambiguate username vs phone.
func User(st *region.Store, tbl offsets.Table, addr uint64) record.User {
	u := record.User{Addr: addr}

	if id, ok := readPtr(st, addr, tbl.Peer.ID); ok {
		u.ID = id
		u.HasID = true
	}

	for _, off := range recognise.UserPointerFields(tbl) {
		s, ok := decodeStringField(st, addr, off)
		if !ok {
			continue
		}
		if !u.HasName {
			u.Name = s
			u.HasName = true
		} else {
			u.Strings = append(u.Strings, s)
		}
	}

	u.IsBot = readPtrFlag(st, addr, tbl.User.IsBot)
	u.IsContact = readTri(st, addr, tbl.User.IsContact)
	u.IsBlocked = readTri(st, addr, tbl.Peer.IsBlocked)

	return u
}

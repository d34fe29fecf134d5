/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package recognise validates whether a candidate address begins (or its
// neighbourhood contains) one of the Telegram Desktop object layouts the
// engine carves for. Every predicate is built from offset reads plus
// recursive QString-contents checks, and every predicate short-circuits
// false on any read outside a region.
package recognise

import (
	"encoding/binary"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/qstring"
	"github.com/dfir-oss/tgcarve/region"
)

func pointerTargetsContents(st *region.Store, objAddr, fieldOffset uint64) bool {
	raw, ok := st.Read(objAddr+fieldOffset, 8)
	if !ok {
		return false
	}
	target := binary.LittleEndian.Uint64(raw)
	return qstring.IsAddressOfContents(st, target)
}

// UserPointerFields lists the five offsets is_raw_user checks, in the
// order spec.md documents them: UserData inherits its "name" pointer
// from the PeerData base layout at addr+16, then adds its own
// firstname/lastname/username/phone pointers.
func UserPointerFields(tbl offsets.Table) []uint64 {
	return []uint64{
		tbl.Peer.Name,
		tbl.User.Firstname,
		tbl.User.Lastname,
		tbl.User.Username,
		tbl.User.Phone,
	}
}

// IsRawUser validates that the five QString pointers of a UserData
// candidate at addr (name/firstname/lastname/username/phone) all target
// valid QString contents. All five must hold.
func IsRawUser(st *region.Store, tbl offsets.Table, addr uint64) bool {
	for _, off := range UserPointerFields(tbl) {
		if !pointerTargetsContents(st, addr, off) {
			return false
		}
	}
	return true
}

// IsPeerData validates that the name pointer of a PeerData candidate at
// addr targets valid QString contents.
func IsPeerData(st *region.Store, tbl offsets.Table, addr uint64) bool {
	return pointerTargetsContents(st, addr, tbl.Peer.Name)
}

// IsDocumentData validates that the filename and filetype pointers of a
// DocumentData candidate at addr both target valid QString contents.
func IsDocumentData(st *region.Store, tbl offsets.Table, addr uint64) bool {
	return pointerTargetsContents(st, addr, tbl.File.Filename) &&
		pointerTargetsContents(st, addr, tbl.File.Filetype)
}

// IsMediaContact validates that the firstname/lastname/phone_number
// pointers inside the given buffer all target valid QString contents.
// offsets here are relative to the start of buf as mapped in the store
// (bufAddr is buf's absolute address).
func IsMediaContact(st *region.Store, tbl offsets.Table, bufAddr uint64) bool {
	return pointerTargetsContents(st, bufAddr, tbl.SharedContact.Firstname) &&
		pointerTargetsContents(st, bufAddr, tbl.SharedContact.Lastname) &&
		pointerTargetsContents(st, bufAddr, tbl.SharedContact.PhoneNumber)
}

// IsMediaLocation validates that the title/description pointers inside
// the given buffer target valid QString contents. Latitude/longitude are
// raw float64s and are not validated here.
func IsMediaLocation(st *region.Store, tbl offsets.Table, bufAddr uint64) bool {
	return pointerTargetsContents(st, bufAddr, tbl.Location.Title) &&
		pointerTargetsContents(st, bufAddr, tbl.Location.Description)
}

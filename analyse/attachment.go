/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package analyse

import (
	"math"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/recognise"
	"github.com/dfir-oss/tgcarve/record"
	"github.com/dfir-oss/tgcarve/region"
)

// mediaWindowSize is the size of the raw media buffer the extractor hands
// the attachment analyser.
const mediaWindowSize = 64

// documentWindowSize is how much of a DocumentData candidate is fetched
// once its pointer validates, covering both filename and filetype fields.
const documentWindowSize = 96

// documentPointerOffset is the DocumentData pointer's offset within the
// 64-byte MediaFile buffer.
const documentPointerOffset = 16

// Attachment triages a 64-byte media buffer at addr against the three
// known media shapes, in order, keeping whichever validates first: a
// file (DocumentData pointer), a shared contact, or a geographic
// location.
func Attachment(st *region.Store, tbl offsets.Table, addr uint64) (record.Attachment, bool) {
	if _, ok := st.Read(addr, mediaWindowSize); !ok {
		return record.Attachment{}, false
	}

	if a, ok := attachmentFile(st, tbl, addr); ok {
		return a, true
	}
	if a, ok := attachmentSharedContact(st, tbl, addr); ok {
		return a, true
	}
	if a, ok := attachmentLocation(st, tbl, addr); ok {
		return a, true
	}
	return record.Attachment{}, false
}

func attachmentFile(st *region.Store, tbl offsets.Table, addr uint64) (record.Attachment, bool) {
	docAddr, ok := readPtr(st, addr, documentPointerOffset)
	if !ok || docAddr == 0 || !recognise.IsDocumentData(st, tbl, docAddr) {
		return record.Attachment{}, false
	}
	if _, ok := st.Read(docAddr, documentWindowSize); !ok {
		return record.Attachment{}, false
	}
	filename, fok := decodeStringField(st, docAddr, tbl.File.Filename)
	filetype, tok := decodeStringField(st, docAddr, tbl.File.Filetype)
	if !fok || !tok {
		return record.Attachment{}, false
	}
	return record.Attachment{
		Kind:     record.AttachmentFile,
		Filename: filename,
		Filetype: filetype,
	}, true
}

func attachmentSharedContact(st *region.Store, tbl offsets.Table, addr uint64) (record.Attachment, bool) {
	if !recognise.IsMediaContact(st, tbl, addr) {
		return record.Attachment{}, false
	}
	first, ok := decodeStringField(st, addr, tbl.SharedContact.Firstname)
	if !ok {
		return record.Attachment{}, false
	}
	last, _ := decodeStringField(st, addr, tbl.SharedContact.Lastname)
	phone, pok := decodeStringField(st, addr, tbl.SharedContact.PhoneNumber)
	return record.Attachment{
		Kind:        record.AttachmentSharedContact,
		Firstname:   first,
		Lastname:    last,
		PhoneNumber: phone,
		HasPhone:    pok,
	}, true
}

func attachmentLocation(st *region.Store, tbl offsets.Table, addr uint64) (record.Attachment, bool) {
	if !recognise.IsMediaLocation(st, tbl, addr) {
		return record.Attachment{}, false
	}
	latRaw, lok := st.Read(addr+tbl.Location.Latitude, 8)
	lonRaw, gok := st.Read(addr+tbl.Location.Longitude, 8)
	if !lok || !gok {
		return record.Attachment{}, false
	}
	lat := math.Float64frombits(leUint64(latRaw))
	lon := math.Float64frombits(leUint64(lonRaw))

	a := record.Attachment{
		Kind:      record.AttachmentGeographicLocation,
		Latitude:  lat,
		Longitude: lon,
	}
	if title, ok := decodeStringField(st, addr, tbl.Location.Title); ok {
		a.Title = title
		a.HasTitle = true
	}
	if desc, ok := decodeStringField(st, addr, tbl.Location.Description); ok {
		a.Description = desc
		a.HasDescription = true
	}
	return a, true
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

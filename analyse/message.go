/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package analyse

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/record"
	"github.com/dfir-oss/tgcarve/recognise"
	"github.com/dfir-oss/tgcarve/region"
)

// Message analyses a candidate HistoryMessage object at addr: its text,
// date, sender (user or conversation), owning conversation, and media
// attachment, if any.
func Message(st *region.Store, tbl offsets.Table, addr uint64) record.Message {
	m := record.Message{Addr: addr}

	if s, ok := decodeStringField(st, addr, tbl.Message.Text); ok {
		if s = strings.TrimSuffix(s, "_"); s != "" {
			m.Text = s
			m.HasText = true
		}
	}

	if raw, ok := st.Read(addr+tbl.Message.Date, 4); ok {
		sec := binary.LittleEndian.Uint32(raw)
		m.Date = time.Unix(int64(sec), 0).UTC()
		m.HasDate = true
	}

	if fromAddr, ok := readPtr(st, addr, tbl.Message.From); ok && fromAddr != 0 {
		if recognise.IsRawUser(st, tbl, fromAddr) {
			u := User(st, tbl, fromAddr)
			m.Sender = &u
		} else if recognise.IsPeerData(st, tbl, fromAddr) {
			c := Conversation(st, tbl, fromAddr)
			m.SenderPeer = &c
		}
	}

	if historyAddr, ok := readPtr(st, addr, tbl.Message.History); ok && historyAddr != 0 {
		if peerAddr, ok := readPtr(st, historyAddr, tbl.History.Peer); ok && peerAddr != 0 {
			if recognise.IsPeerData(st, tbl, peerAddr) {
				c := Conversation(st, tbl, peerAddr)
				m.Conversation = &c
			}
		}
	}

	if mediaAddr, ok := readPtr(st, addr, tbl.Message.Media); ok && mediaAddr != 0 {
		if a, ok := Attachment(st, tbl, mediaAddr); ok {
			m.Attachment = &a
		}
	}

	return m
}

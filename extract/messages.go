/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extract

import (
	"regexp"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/qstring"
	"github.com/dfir-oss/tgcarve/region"
)

// timetextPattern matches a UTF-16LE "H:MM" or "HH:MM" clock string, the
// way HistoryMessage's cached timetext QString looks in memory.
var timetextPattern = regexp.MustCompile(`(?s)([\x30-\x32]\x00)?\d\x00:\x00[\x30-\x35]\x00\d\x00`)

const (
	// historyMessageAbove/Below bound the HistoryMessage neighbourhood
	// window extracted around a confirmed timetext reference: the
	// reference sits at the message's timetext field (offset 160), so
	// walking 10*16 bytes back reaches the message base.
	historyMessageAbove uint64 = 10 * 16
	historyMessageBelow uint64 = 16
)

// Messages enumerates every candidate HistoryMessage base address, by
// anchoring on rendered clock text and then locating every pointer to its
// QString contents block.
func Messages(st *region.Store, tbl offsets.Table) []uint64 {
	found := newAddrSet()

	sc := st.Scan(timetextPattern)
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
			if ref < historyMessageAbove {
				continue
			}
			msgAddr := ref - historyMessageAbove
			if found.has(msgAddr) {
				continue
			}
			if _, ok := st.Read(msgAddr, historyMessageAbove+historyMessageBelow); !ok {
				continue
			}
			found.add(msgAddr)
		}
	}

	return found.slice()
}

// Accounts, Conversations and MessageAttachments have no direct memory
// anchor: accounts are synthesised by the organiser from the recovered
// user/message population, conversations are discovered transitively via
// Message.Conversation, and attachments via Message.Attachment. These
// stubs exist so the Extractor capability surface is complete.
func Accounts(_ *region.Store, _ offsets.Table) []uint64           { return nil }
func Conversations(_ *region.Store, _ offsets.Table) []uint64      { return nil }
func MessageAttachments(_ *region.Store, _ offsets.Table) []uint64 { return nil }

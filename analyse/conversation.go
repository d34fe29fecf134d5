/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package analyse

import (
	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/record"
	"github.com/dfir-oss/tgcarve/region"
)

// typeNibbleMask isolates bits 32-35 of the peer id, which encode whether
// the conversation is an individual, a group, or a channel.
const typeNibbleMask uint64 = 0xF_0000_0000

// Conversation analyses a candidate PeerData object at addr: decodes its
// name pointer and id, and infers its type from the id's top nibble.
func Conversation(st *region.Store, tbl offsets.Table, addr uint64) record.Conversation {
	c := record.Conversation{Addr: addr}

	if id, ok := readPtr(st, addr, tbl.Peer.ID); ok {
		c.ID = id
		c.HasID = true
		c.Type = classify(id)
	}

	if s, ok := decodeStringField(st, addr, tbl.Peer.Name); ok {
		c.Name = s
		c.HasName = true
	}

	return c
}

func classify(id uint64) record.ConversationType {
	switch id & typeNibbleMask {
	case 0x0_0000_0000:
		return record.ConversationIndividual
	case 0x1_0000_0000:
		return record.ConversationGroup
	case 0x2_0000_0000:
		return record.ConversationChannel
	}
	return record.ConversationUnknown
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package record defines the fixed-schema, per-kind records that analysers
// emit and the organiser consumes. Records are untyped only in the sense
// that any field may be absent ("not recovered"); the schema itself is
// fixed and explicit, never a free-form map.
package record

import "time"

// Tri is an optional tri-state boolean: unset/true/false. It models the
// 0x01/0x02-or-absent convention used to decode is_contact/is_blocked.
type Tri int

const (
	TriUnset Tri = iota
	TriTrue
	TriFalse
)

func (t Tri) Bool() (v bool, ok bool) {
	switch t {
	case TriTrue:
		return true, true
	case TriFalse:
		return false, true
	}
	return false, false
}

// User is the analyser output for a candidate UserData object.
type User struct {
	Addr       uint64
	ID         uint64
	HasID      bool
	Name       string
	HasName    bool
	Strings    []string // remaining decoded strings beyond Name: username/phone candidates
	IsBot      Tri
	IsContact  Tri
	IsBlocked  Tri
}

// Conversation is the analyser output for a candidate PeerData object.
type Conversation struct {
	Addr    uint64
	ID      uint64
	HasID   bool
	Name    string
	HasName bool
	Type    ConversationType
}

// ConversationType is inferred from the top nibble of the peer id.
type ConversationType int

const (
	ConversationUnknown ConversationType = iota
	ConversationIndividual
	ConversationGroup
	ConversationChannel
)

// Message is the analyser output for a candidate HistoryMessage object.
type Message struct {
	Addr             uint64
	Text             string
	HasText          bool
	Date             time.Time
	HasDate          bool
	Sender           *User
	SenderPeer       *Conversation
	Conversation     *Conversation
	Attachment       *Attachment
}

// AttachmentKind tags which of the three attachment shapes a record
// carries.
type AttachmentKind int

const (
	AttachmentNone AttachmentKind = iota
	AttachmentFile
	AttachmentSharedContact
	AttachmentGeographicLocation
)

// Attachment is the analyser output for a candidate media buffer. Only the
// fields relevant to Kind are meaningful.
type Attachment struct {
	Kind AttachmentKind

	// File
	Filename string
	Filetype string

	// SharedContact
	Firstname   string
	Lastname    string
	PhoneNumber string
	HasPhone    bool

	// GeographicLocation
	Latitude        float64
	Longitude       float64
	Title           string
	HasTitle        bool
	Description     string
	HasDescription  bool
}

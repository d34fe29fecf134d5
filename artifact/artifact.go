/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package artifact defines the reconstructed object tree the organiser
// builds and the report writer serialises: an Account owning Users and
// Conversations, each Conversation owning Messages in chronological order.
package artifact

import "time"

// User is a recovered Telegram Desktop user, deduplicated by ID across
// every conversation it appears in. A user whose id could not be
// recovered (HasID false) is never deduplicated against any other user:
// null ids do not collapse.
type User struct {
	ID        uint64
	HasID     bool
	Name      string
	HasName   bool
	IsBot     *bool
	IsContact *bool
	IsBlocked *bool
}

// Account is the root of the reconstructed tree: the owning user, if one
// could be inferred, and every user and conversation recovered from the
// dump.
type Account struct {
	Owner         *User
	Users         []*User
	Conversations []Conversation
}

// ConversationKind tags which conversation shape a Conversation carries.
type ConversationKind int

const (
	KindIndividual ConversationKind = iota
	KindGroup
	KindChannel
)

// Conversation is one recovered chat, channel, or direct conversation. The
// fields relevant to Kind are populated; the rest are left zero.
type Conversation struct {
	Kind ConversationKind
	ID   uint64
	Name string

	// Individual
	Users []*User

	// Group
	Participants []*User
	Admins       []*User

	// Channel
	Publishers  []*User
	Subscribers []*User

	Messages []*Message
}

// Message is one recovered chat message, in the context of the
// Conversation that owns it.
type Message struct {
	Text         string
	HasText      bool
	Date         time.Time
	Sender       *User
	Conversation *Conversation
	Attachment   *Attachment
}

// AttachmentKind tags which of the three attachment shapes an Attachment
// carries.
type AttachmentKind int

const (
	AttachmentFile AttachmentKind = iota
	AttachmentSharedContact
	AttachmentGeographicLocation
)

// Attachment is a recovered message attachment. Only the fields relevant
// to Kind are meaningful.
type Attachment struct {
	Kind AttachmentKind

	File File

	SharedContact SharedContact

	GeographicLocation GeographicLocation
}

// File is a recovered document attachment.
type File struct {
	Filename string
	Filetype string
}

// SharedContact is a recovered vCard-style contact share.
type SharedContact struct {
	Name        string
	PhoneNumber string
	HasPhone    bool
}

// GeographicLocation is a recovered pinned-location share.
type GeographicLocation struct {
	Latitude       float64
	Longitude      float64
	Title          string
	HasTitle       bool
	Description    string
	HasDescription bool
}

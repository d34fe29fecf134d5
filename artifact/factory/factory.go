/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package factory translates the fixed-schema records the analysers emit
// into the artifact tree's reconstructed types. It performs no
// deduplication or cross-linking; the organiser owns that, calling these
// constructors once per unique record.
package factory

import (
	"github.com/dfir-oss/tgcarve/artifact"
	"github.com/dfir-oss/tgcarve/record"
)

// User builds an artifact.User from an analysed user record.
func User(r record.User) *artifact.User {
	u := &artifact.User{ID: r.ID, HasID: r.HasID}
	if r.HasName {
		u.Name = r.Name
		u.HasName = true
	}
	if v, ok := r.IsBot.Bool(); ok {
		u.IsBot = &v
	}
	if v, ok := r.IsContact.Bool(); ok {
		u.IsContact = &v
	}
	if v, ok := r.IsBlocked.Bool(); ok {
		u.IsBlocked = &v
	}
	return u
}

// Conversation builds an artifact.Conversation shell (ID and Name only;
// membership and messages are attached by the organiser) from an analysed
// conversation record. ok is false when the record's type could not be
// classified into one of the three known conversation kinds.
func Conversation(r record.Conversation) (c *artifact.Conversation, ok bool) {
	var kind artifact.ConversationKind
	switch r.Type {
	case record.ConversationIndividual:
		kind = artifact.KindIndividual
	case record.ConversationGroup:
		kind = artifact.KindGroup
	case record.ConversationChannel:
		kind = artifact.KindChannel
	default:
		return nil, false
	}
	c = &artifact.Conversation{Kind: kind, ID: r.ID}
	if r.HasName {
		c.Name = r.Name
	}
	return c, true
}

// Attachment builds an artifact.Attachment from an analysed attachment
// record. ok is false for a record.AttachmentNone, which carries no
// recovered attachment at all.
func Attachment(r record.Attachment) (a *artifact.Attachment, ok bool) {
	switch r.Kind {
	case record.AttachmentFile:
		return &artifact.Attachment{
			Kind: artifact.AttachmentFile,
			File: artifact.File{Filename: r.Filename, Filetype: r.Filetype},
		}, true
	case record.AttachmentSharedContact:
		name := r.Firstname
		if r.Lastname != "" {
			name = name + " " + r.Lastname
		}
		return &artifact.Attachment{
			Kind: artifact.AttachmentSharedContact,
			SharedContact: artifact.SharedContact{
				Name:        name,
				PhoneNumber: r.PhoneNumber,
				HasPhone:    r.HasPhone,
			},
		}, true
	case record.AttachmentGeographicLocation:
		return &artifact.Attachment{
			Kind: artifact.AttachmentGeographicLocation,
			GeographicLocation: artifact.GeographicLocation{
				Latitude:       r.Latitude,
				Longitude:      r.Longitude,
				Title:          r.Title,
				HasTitle:       r.HasTitle,
				Description:    r.Description,
				HasDescription: r.HasDescription,
			},
		}, true
	default:
		return nil, false
	}
}

// Message builds an artifact.Message shell (text, date, attachment) from
// an analysed message record. Sender and Conversation are left nil; the
// organiser resolves them against its deduplicated user and conversation
// pools.
func Message(r record.Message) *artifact.Message {
	m := &artifact.Message{Date: r.Date}
	if r.HasText {
		m.Text = r.Text
		m.HasText = true
	}
	if r.Attachment != nil {
		if a, ok := Attachment(*r.Attachment); ok {
			m.Attachment = a
		}
	}
	return m
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package report serialises a reconstructed artifact.Account to the
// carving engine's JSON report format: pretty-printed, UTF-8 (not
// escaped to \uXXXX), with ISO-8601 UTC timestamps and null for any field
// that could not be recovered. The exception is an attachment's optional
// fields (phone number, title, description): when not recovered they are
// left out of the attachment object rather than written as null.
package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/dchest/safefile"

	"github.com/dfir-oss/tgcarve/artifact"
)

const dateLayout = "2006-01-02T15:04:05Z"

// Write renders acc as JSON to path, via a temp-file-then-rename so a
// crash or a failed encode never leaves a truncated report at path. runID
// tags the report with the carving run that produced it (see cmd/tgcarve,
// which mints one per invocation with google/uuid).
func Write(path string, runID string, acc *artifact.Account) (err error) {
	var fout *safefile.File
	if fout, err = safefile.Create(path, 0644); err != nil {
		return err
	}
	n := fout.Name() // in case we have to destroy it
	if err = Encode(fout, runID, acc); err != nil {
		fout.File.Close()
		os.Remove(n)
	} else if err = fout.Commit(); err != nil {
		fout.File.Close()
		os.Remove(n)
	}
	return err
}

// Encode renders acc as JSON to w.
func Encode(w io.Writer, runID string, acc *artifact.Account) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(toDoc(runID, acc))
}

// doc mirrors artifact.Account but in the report's wire shape: pointers
// become nested objects or null, and dates become formatted strings.
type doc struct {
	RunID         string          `json:"run_id"`
	Owner         *userDoc        `json:"owner"`
	Users         []*userDoc      `json:"users"`
	Conversations []conversionDoc `json:"conversations"`
}

type userDoc struct {
	ID        *uint64 `json:"id"`
	Name      *string `json:"name"`
	IsBot     *bool   `json:"is_bot"`
	IsContact *bool   `json:"is_contact"`
	IsBlocked *bool   `json:"is_blocked"`
}

type conversionDoc struct {
	Kind         string       `json:"kind"`
	ID           uint64       `json:"id"`
	Name         *string      `json:"name"`
	Users        []*uint64    `json:"users,omitempty"`
	Participants []*uint64    `json:"participants,omitempty"`
	Admins       []*uint64    `json:"admins,omitempty"`
	Publishers   []*uint64    `json:"publishers,omitempty"`
	Subscribers  []*uint64    `json:"subscribers,omitempty"`
	Messages     []messageDoc `json:"messages"`
}

type messageDoc struct {
	Text       *string        `json:"text"`
	Date       *string        `json:"date"`
	SenderID   *uint64        `json:"sender_id"`
	Attachment *attachmentDoc `json:"attachment"`
}

type attachmentDoc struct {
	Kind string `json:"kind"`

	Filename string `json:"filename,omitempty"`
	Filetype string `json:"filetype,omitempty"`

	Name        string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`

	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func toDoc(runID string, acc *artifact.Account) doc {
	d := doc{
		RunID: runID,
		Owner: userRefDoc(acc.Owner),
	}
	for _, u := range acc.Users {
		d.Users = append(d.Users, userRefDoc(u))
	}
	for i := range acc.Conversations {
		d.Conversations = append(d.Conversations, conversationRefDoc(&acc.Conversations[i]))
	}
	return d
}

func userRefDoc(u *artifact.User) *userDoc {
	if u == nil {
		return nil
	}
	ud := &userDoc{
		IsBot:     u.IsBot,
		IsContact: u.IsContact,
		IsBlocked: u.IsBlocked,
	}
	if u.HasID {
		ud.ID = &u.ID
	}
	if u.HasName {
		ud.Name = &u.Name
	}
	return ud
}

func kindString(k artifact.ConversationKind) string {
	switch k {
	case artifact.KindIndividual:
		return "individual"
	case artifact.KindGroup:
		return "group"
	case artifact.KindChannel:
		return "channel"
	}
	return "unknown"
}

func userIDs(users []*artifact.User) []*uint64 {
	out := make([]*uint64, len(users))
	for i, u := range users {
		if u.HasID {
			out[i] = &u.ID
		}
	}
	return out
}

func conversationRefDoc(c *artifact.Conversation) conversionDoc {
	cd := conversionDoc{
		Kind: kindString(c.Kind),
		ID:   c.ID,
	}
	if c.Name != "" {
		name := c.Name
		cd.Name = &name
	}
	switch c.Kind {
	case artifact.KindIndividual:
		cd.Users = userIDs(c.Users)
	case artifact.KindGroup:
		cd.Participants = userIDs(c.Participants)
		cd.Admins = userIDs(c.Admins)
	case artifact.KindChannel:
		cd.Publishers = userIDs(c.Publishers)
		cd.Subscribers = userIDs(c.Subscribers)
	}
	for _, m := range c.Messages {
		cd.Messages = append(cd.Messages, messageRefDoc(m))
	}
	return cd
}

func messageRefDoc(m *artifact.Message) messageDoc {
	md := messageDoc{}
	if m.HasText {
		md.Text = &m.Text
	}
	if !m.Date.IsZero() {
		s := m.Date.UTC().Format(dateLayout)
		md.Date = &s
	}
	if m.Sender != nil && m.Sender.HasID {
		id := m.Sender.ID
		md.SenderID = &id
	}
	if m.Attachment != nil {
		ad := attachmentRefDoc(m.Attachment)
		md.Attachment = &ad
	}
	return md
}

func attachmentRefDoc(a *artifact.Attachment) attachmentDoc {
	switch a.Kind {
	case artifact.AttachmentFile:
		return attachmentDoc{
			Kind:     "file",
			Filename: a.File.Filename,
			Filetype: a.File.Filetype,
		}
	case artifact.AttachmentSharedContact:
		ad := attachmentDoc{Kind: "shared_contact", Name: a.SharedContact.Name}
		if a.SharedContact.HasPhone {
			ad.PhoneNumber = &a.SharedContact.PhoneNumber
		}
		return ad
	case artifact.AttachmentGeographicLocation:
		lat, lon := a.GeographicLocation.Latitude, a.GeographicLocation.Longitude
		ad := attachmentDoc{Kind: "geographic_location", Latitude: &lat, Longitude: &lon}
		if a.GeographicLocation.HasTitle {
			ad.Title = &a.GeographicLocation.Title
		}
		if a.GeographicLocation.HasDescription {
			ad.Description = &a.GeographicLocation.Description
		}
		return ad
	}
	return attachmentDoc{}
}

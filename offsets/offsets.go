/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package offsets carries the fixed struct-layout constants the engine
// carves against. They target one specific Telegram Desktop build;
// adapting to another build means loading a different table with
// LoadOverrides, not rewriting the engine.
package offsets

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gravwell/gcfg"
)

// Peer holds the byte offsets of fields inside a PeerData object.
type Peer struct {
	ID          uint64
	Name        uint64
	DataSession uint64
	IsBlocked   uint64
}

// User holds the byte offsets of fields inside a UserData object.
type User struct {
	Firstname       uint64
	Lastname        uint64
	Username        uint64
	IsBot           uint64
	Phone           uint64
	IsContact       uint64
	BytesAbovePhone uint64
	BytesBelowPhone uint64
}

// Message holds the byte offsets of fields inside a HistoryMessage object.
type Message struct {
	History  uint64
	From     uint64
	Text     uint64
	Media    uint64
	Date     uint64
	Timetext uint64
}

// History holds the byte offsets of fields inside a HistoryItem object.
type History struct {
	Peer uint64
}

// File holds the byte offsets of fields inside a DocumentData object.
type File struct {
	Filename uint64
	Filetype uint64
}

// SharedContact holds the byte offsets of fields inside a MediaContact
// object.
type SharedContact struct {
	Firstname   uint64
	Lastname    uint64
	PhoneNumber uint64
}

// Location holds the byte offsets of fields inside a MediaLocation
// object.
type Location struct {
	Latitude    uint64
	Longitude   uint64
	Title       uint64
	Description uint64
}

// Table is the full set of offsets plus the inter-user allocation stride,
// carried as one piece of configuration through the whole engine.
type Table struct {
	Peer          Peer
	User          User
	Message       Message
	History       History
	File          File
	SharedContact SharedContact
	Location      Location
	UserStride    uint64
}

// Default is the offset table for the Telegram Desktop build this engine
// targets, per spec.
var Default = Table{
	Peer: Peer{
		ID:          8,
		Name:        16,
		DataSession: 48,
		IsBlocked:   352,
	},
	User: User{
		Firstname:       384,
		Lastname:        392,
		Username:        400,
		IsBot:           480,
		Phone:           560,
		IsContact:       568,
		BytesAbovePhone: 560,
		BytesBelowPhone: 16,
	},
	Message: Message{
		History:  8,
		From:     16,
		Text:     48,
		Media:    120,
		Date:     128,
		Timetext: 160,
	},
	History: History{
		Peer: 192,
	},
	File: File{
		Filename: 80,
		Filetype: 88,
	},
	SharedContact: SharedContact{
		Firstname:   24,
		Lastname:    32,
		PhoneNumber: 40,
	},
	Location: Location{
		Latitude:    16,
		Longitude:   24,
		Title:       48,
		Description: 56,
	},
	UserStride: 592,
}

var (
	ErrConfigTooLarge = errors.New("offset override file is too large")
	maxOverrideSize    = 1 << 20 // 1MB is absurdly generous for an offset table
)

// overrideDoc mirrors Table but in gcfg's [section] / key = value shape,
// so a build-specific offset table can be supplied on disk without
// recompiling the engine.
type overrideDoc struct {
	Peer struct {
		ID          *uint64
		Name        *uint64
		DataSession *uint64
		IsBlocked   *uint64
	}
	User struct {
		Firstname       *uint64
		Lastname        *uint64
		Username        *uint64
		IsBot           *uint64
		Phone           *uint64
		IsContact       *uint64
		BytesAbovePhone *uint64
		BytesBelowPhone *uint64
	}
	Message struct {
		History  *uint64
		From     *uint64
		Text     *uint64
		Media    *uint64
		Date     *uint64
		Timetext *uint64
	}
	History struct {
		Peer *uint64
	}
	File struct {
		Filename *uint64
		Filetype *uint64
	}
	SharedContact struct {
		Firstname   *uint64
		Lastname    *uint64
		PhoneNumber *uint64
	}
	Location struct {
		Latitude    *uint64
		Longitude   *uint64
		Title       *uint64
		Description *uint64
	}
	Stride struct {
		User *uint64
	}
}

// LoadOverrides reads a gcfg-format offset override file and applies any
// fields it sets on top of Default, returning the merged table. Missing
// sections or keys simply fall back to Default.
func LoadOverrides(path string) (Table, error) {
	t := Default
	f, err := os.Open(path)
	if err != nil {
		return t, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return t, err
	}
	if fi.Size() > int64(maxOverrideSize) {
		return t, ErrConfigTooLarge
	}
	bb := bytes.NewBuffer(nil)
	if _, err := io.Copy(bb, f); err != nil {
		return t, err
	}
	var doc overrideDoc
	if err := gcfg.ReadStringInto(&doc, bb.String()); err != nil {
		return t, err
	}
	applyOverrides(&t, &doc)
	return t, nil
}

func applyOverrides(t *Table, d *overrideDoc) {
	set := func(dst *uint64, src *uint64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.Peer.ID, d.Peer.ID)
	set(&t.Peer.Name, d.Peer.Name)
	set(&t.Peer.DataSession, d.Peer.DataSession)
	set(&t.Peer.IsBlocked, d.Peer.IsBlocked)

	set(&t.User.Firstname, d.User.Firstname)
	set(&t.User.Lastname, d.User.Lastname)
	set(&t.User.Username, d.User.Username)
	set(&t.User.IsBot, d.User.IsBot)
	set(&t.User.Phone, d.User.Phone)
	set(&t.User.IsContact, d.User.IsContact)
	set(&t.User.BytesAbovePhone, d.User.BytesAbovePhone)
	set(&t.User.BytesBelowPhone, d.User.BytesBelowPhone)

	set(&t.Message.History, d.Message.History)
	set(&t.Message.From, d.Message.From)
	set(&t.Message.Text, d.Message.Text)
	set(&t.Message.Media, d.Message.Media)
	set(&t.Message.Date, d.Message.Date)
	set(&t.Message.Timetext, d.Message.Timetext)

	set(&t.History.Peer, d.History.Peer)

	set(&t.File.Filename, d.File.Filename)
	set(&t.File.Filetype, d.File.Filetype)

	set(&t.SharedContact.Firstname, d.SharedContact.Firstname)
	set(&t.SharedContact.Lastname, d.SharedContact.Lastname)
	set(&t.SharedContact.PhoneNumber, d.SharedContact.PhoneNumber)

	set(&t.Location.Latitude, d.Location.Latitude)
	set(&t.Location.Longitude, d.Location.Longitude)
	set(&t.Location.Title, d.Location.Title)
	set(&t.Location.Description, d.Location.Description)

	set(&t.UserStride, d.Stride.User)
}

// UserSubpatternSize is the size of the raw byte window extracted for a
// candidate user, covering every field offset the recognisers touch.
func (t Table) UserSubpatternSize() uint64 {
	return t.User.IsContact + 8
}

// MessageWindowSize is the size of the raw byte window extracted for a
// candidate message, covering every field offset the analyser touches.
func (t Table) MessageWindowSize() uint64 {
	return t.Message.Date + 8
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package organise

import (
	"testing"
	"time"

	"github.com/dfir-oss/tgcarve/record"
)

func trueTri() record.Tri  { return record.TriTrue }
func falseTri() record.Tri { return record.TriFalse }

func conv(id uint64, name string, typ record.ConversationType) record.Conversation {
	return record.Conversation{ID: id, HasID: true, Name: name, HasName: true, Type: typ}
}

func user(id uint64, name string, contact record.Tri) record.User {
	return record.User{ID: id, HasID: true, Name: name, HasName: name != "", IsContact: contact}
}

func msg(text string, t time.Time, sender record.User, c record.Conversation) record.Message {
	return record.Message{Text: text, HasText: true, Date: t, HasDate: true, Sender: &sender, Conversation: &c}
}

func TestOrganiseSortsMessagesByDate(t *testing.T) {
	c := conv(1, "Alice", record.ConversationIndividual)
	alice := user(2, "Alice", trueTri())
	owner := user(3, "Owner", falseTri())

	t1 := time.Unix(1000, 0).UTC()
	t2 := time.Unix(2000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			msg("second", t2, alice, c),
			msg("first", t1, owner, c),
		},
	}

	acc := Organise(pop)
	if len(acc.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(acc.Conversations))
	}
	got := acc.Conversations[0].Messages
	if len(got) != 2 || got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("messages not sorted by date: %+v", got)
	}
}

func TestOrganiseInfersOwnerSingleIndividual(t *testing.T) {
	c := conv(1, "Alice", record.ConversationIndividual)
	alice := user(2, "Alice", trueTri())
	owner := user(3, "Me", falseTri())

	t1 := time.Unix(1000, 0).UTC()
	t2 := time.Unix(2000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			msg("hi", t1, alice, c),
			msg("hello", t2, owner, c),
		},
	}

	acc := Organise(pop)
	if acc.Owner == nil {
		t.Fatal("expected an inferred owner")
	}
	if acc.Owner.ID != owner.ID {
		t.Fatalf("expected owner id %d, got %d", owner.ID, acc.Owner.ID)
	}
}

func TestOrganiseInfersOwnerAcrossMultipleIndividuals(t *testing.T) {
	owner := user(10, "Me", falseTri())
	alice := user(2, "Alice", trueTri())
	bob := user(3, "Bob", trueTri())

	c1 := conv(1, "Alice", record.ConversationIndividual)
	c2 := conv(2, "Bob", record.ConversationIndividual)

	t1 := time.Unix(1000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			msg("hi alice", t1, alice, c1),
			msg("hi from me", t1, owner, c1),
			msg("hi bob", t1, bob, c2),
			msg("hi from me again", t1, owner, c2),
		},
	}

	acc := Organise(pop)
	if acc.Owner == nil || acc.Owner.ID != owner.ID {
		t.Fatalf("expected recurring non-contact %d as owner, got %+v", owner.ID, acc.Owner)
	}
}

func TestOrganiseDedupesUsersByID(t *testing.T) {
	c := conv(1, "Group", record.ConversationGroup)
	u := user(5, "", trueTri())
	uNamed := user(5, "Full Name", trueTri())

	t1 := time.Unix(1000, 0).UTC()
	t2 := time.Unix(2000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			msg("a", t1, u, c),
			msg("b", t2, uNamed, c),
		},
	}

	acc := Organise(pop)
	if len(acc.Users) != 1 {
		t.Fatalf("expected one deduplicated user, got %d", len(acc.Users))
	}
	if !acc.Users[0].HasName || acc.Users[0].Name != "Full Name" {
		t.Fatalf("expected merged name to fill in, got %+v", acc.Users[0])
	}
}

func TestOrganiseNullIDUsersNeverCollapse(t *testing.T) {
	c := conv(1, "Group", record.ConversationGroup)
	noID1 := record.User{HasID: false, Name: "First", HasName: true}
	noID2 := record.User{HasID: false, Name: "Second", HasName: true}

	t1 := time.Unix(1000, 0).UTC()
	t2 := time.Unix(2000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			msg("a", t1, noID1, c),
			msg("b", t2, noID2, c),
		},
	}

	acc := Organise(pop)
	if len(acc.Users) != 2 {
		t.Fatalf("expected two distinct null-id users, got %d", len(acc.Users))
	}
	if len(acc.Conversations) != 1 || len(acc.Conversations[0].Participants) != 2 {
		t.Fatalf("expected both null-id users counted as distinct participants, got %+v", acc.Conversations)
	}
}

func TestOrganiseSynthesizesSenderFromPeer(t *testing.T) {
	c := conv(1, "Channel", record.ConversationChannel)
	channelPeer := conv(1, "Channel", record.ConversationChannel)

	t1 := time.Unix(1000, 0).UTC()

	pop := Population{
		Messages: []record.Message{
			{Text: "announcement", HasText: true, Date: t1, SenderPeer: &channelPeer, Conversation: &c},
		},
	}

	acc := Organise(pop)
	if len(acc.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(acc.Conversations))
	}
	msgs := acc.Conversations[0].Messages
	if len(msgs) != 1 || msgs[0].Sender == nil {
		t.Fatalf("expected a synthesized sender for the peer-attributed message, got %+v", msgs)
	}
	if msgs[0].Sender.ID != 1 || !msgs[0].Sender.HasID || msgs[0].Sender.Name != "Channel" {
		t.Fatalf("expected sender synthesized from the channel peer, got %+v", msgs[0].Sender)
	}
}

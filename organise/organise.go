/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package organise assembles the raw population of analysed records into
// one coherent artifact.Account: deduplicating users and conversations by
// ID, attaching each message to its conversation and sender, sorting each
// conversation's messages into chronological order, and inferring which
// recovered user is the dump's own account owner.
package organise

import (
	"sort"

	"github.com/dfir-oss/tgcarve/artifact"
	"github.com/dfir-oss/tgcarve/artifact/factory"
	"github.com/dfir-oss/tgcarve/record"
)

// Population is the full set of records the analysers recovered from one
// dump, handed to Organise as a single batch.
type Population struct {
	Users         []record.User
	Conversations []record.Conversation
	Messages      []record.Message
}

// Organise builds the deduplicated artifact.Account tree from a
// Population.
func Organise(pop Population) *artifact.Account {
	o := newOrganiser()

	for _, u := range pop.Users {
		o.mergeUser(u)
	}
	for _, c := range pop.Conversations {
		o.getOrCreateConversation(c)
	}
	for _, m := range pop.Messages {
		o.addMessage(m)
	}

	for _, c := range o.convOrder {
		sortMessages(c.Messages)
	}

	acc := &artifact.Account{
		Users:         o.userSlice(),
		Conversations: o.convSlice(),
	}
	acc.Owner = inferOwner(o.convOrder)
	return acc
}

type organiser struct {
	// idUsers holds every user (real or peer-synthesized) whose id was
	// recovered, keyed by that id so later records for the same user
	// merge into one entry.
	idUsers map[uint64]*artifact.User
	// allUsers holds every distinct *artifact.User in first-seen order,
	// including every HasID-false user: those are never looked up by
	// id, only appended, since null ids must never collapse together.
	allUsers []*artifact.User

	convs     map[uint64]*artifact.Conversation
	convOrder []*artifact.Conversation
}

func newOrganiser() *organiser {
	return &organiser{
		idUsers: make(map[uint64]*artifact.User),
		convs:   make(map[uint64]*artifact.Conversation),
	}
}

// mergeUser folds a newly-analysed user record into the pool, by ID.
// Later records only fill in fields the existing entry lacks; they never
// overwrite a value already recovered. A record whose id could not be
// recovered always produces a fresh, distinct user.
func (o *organiser) mergeUser(r record.User) *artifact.User {
	if !r.HasID {
		u := factory.User(r)
		o.allUsers = append(o.allUsers, u)
		return u
	}
	if existing, ok := o.idUsers[r.ID]; ok {
		fresh := factory.User(r)
		mergeUserFields(existing, fresh)
		return existing
	}
	u := factory.User(r)
	o.idUsers[r.ID] = u
	o.allUsers = append(o.allUsers, u)
	return u
}

// mergeSenderPeer folds a message's peer-typed sender into the same user
// pool as mergeUser, synthesizing a pseudo-user from the peer's id and
// name. This covers messages (e.g. channel posts) whose "from" pointer
// resolves to PeerData rather than a raw UserData, so they still carry a
// sender in the final report, mirroring the original's synthesis of a
// TelegramDesktopUser from the peer.
func (o *organiser) mergeSenderPeer(c record.Conversation) *artifact.User {
	if !c.HasID {
		u := &artifact.User{}
		if c.HasName {
			u.Name = c.Name
			u.HasName = true
		}
		o.allUsers = append(o.allUsers, u)
		return u
	}
	if existing, ok := o.idUsers[c.ID]; ok {
		if !existing.HasName && c.HasName {
			existing.Name = c.Name
			existing.HasName = true
		}
		return existing
	}
	u := &artifact.User{ID: c.ID, HasID: true}
	if c.HasName {
		u.Name = c.Name
		u.HasName = true
	}
	o.idUsers[c.ID] = u
	o.allUsers = append(o.allUsers, u)
	return u
}

func mergeUserFields(existing, fresh *artifact.User) {
	if !existing.HasName && fresh.HasName {
		existing.Name = fresh.Name
		existing.HasName = true
	}
	if existing.IsBot == nil {
		existing.IsBot = fresh.IsBot
	}
	if existing.IsContact == nil {
		existing.IsContact = fresh.IsContact
	}
	if existing.IsBlocked == nil {
		existing.IsBlocked = fresh.IsBlocked
	}
}

func (o *organiser) getOrCreateConversation(r record.Conversation) *artifact.Conversation {
	if r.HasID {
		if existing, ok := o.convs[r.ID]; ok {
			if existing.Name == "" && r.HasName {
				existing.Name = r.Name
			}
			return existing
		}
	}
	c, ok := factory.Conversation(r)
	if !ok {
		return nil
	}
	if r.HasID {
		o.convs[r.ID] = c
	}
	o.convOrder = append(o.convOrder, c)
	return c
}

// addMessage resolves a message record's conversation and sender against
// the deduplicated pools, then attaches it. A message whose sender
// resolved to a peer rather than a raw user (channel posts attributed to
// the channel itself) gets a synthesized pseudo-user sender instead of
// being left senderless.
func (o *organiser) addMessage(r record.Message) {
	if r.Conversation == nil {
		return
	}
	conv := o.getOrCreateConversation(*r.Conversation)
	if conv == nil {
		return
	}

	m := factory.Message(r)
	m.Conversation = conv

	var sender *artifact.User
	switch {
	case r.Sender != nil:
		sender = o.mergeUser(*r.Sender)
	case r.SenderPeer != nil:
		sender = o.mergeSenderPeer(*r.SenderPeer)
	}
	m.Sender = sender

	conv.Messages = append(conv.Messages, m)
	if sender != nil {
		addMember(conv, sender)
	}
}

// addMember adds u to the membership slice appropriate to conv's kind,
// skipping it if already present.
func addMember(conv *artifact.Conversation, u *artifact.User) {
	switch conv.Kind {
	case artifact.KindIndividual:
		conv.Users = appendUnique(conv.Users, u)
	case artifact.KindGroup:
		conv.Participants = appendUnique(conv.Participants, u)
	case artifact.KindChannel:
		conv.Publishers = appendUnique(conv.Publishers, u)
	}
}

// appendUnique adds u to users unless it is already present. Identity is
// by pointer, not by ID: mergeUser and mergeSenderPeer guarantee that two
// records sharing a real id always resolve to the same *artifact.User,
// while every HasID-false user is a distinct pointer, so null ids never
// collapse together here.
func appendUnique(users []*artifact.User, u *artifact.User) []*artifact.User {
	for _, existing := range users {
		if existing == u {
			return users
		}
	}
	return append(users, u)
}

func sortMessages(msgs []*artifact.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date.Before(msgs[j].Date)
	})
}

func (o *organiser) userSlice() []*artifact.User {
	return o.allUsers
}

func (o *organiser) convSlice() []artifact.Conversation {
	out := make([]artifact.Conversation, 0, len(o.convOrder))
	for _, c := range o.convOrder {
		out = append(out, *c)
	}
	return out
}

// inferOwner identifies which recovered user is the dump's own account,
// using the fact that an individual conversation's two participants are
// the owner and their contact: the owner's own UserData is rarely, if
// ever, marked as a contact of itself.
//
// With exactly one individual conversation of two users, the non-contact
// one is the owner. With several, the owner is whichever non-contact user
// recurs across more than one of them; if that is ambiguous or absent,
// the owner is left unset. Candidates are tracked by pointer, not ID, so
// distinct null-id users are never mistaken for the same recurring user.
func inferOwner(convs []*artifact.Conversation) *artifact.User {
	var individuals []*artifact.Conversation
	for _, c := range convs {
		if c.Kind == artifact.KindIndividual {
			individuals = append(individuals, c)
		}
	}

	if len(individuals) == 1 {
		c := individuals[0]
		if len(c.Users) == 2 {
			if u := soleNonContact(c.Users); u != nil {
				return u
			}
		}
		return nil
	}

	counts := make(map[*artifact.User]int)
	for _, c := range individuals {
		for _, u := range c.Users {
			if isContact(u) {
				continue
			}
			counts[u]++
		}
	}

	var candidate *artifact.User
	for u, n := range counts {
		if n > 1 {
			if candidate != nil {
				return nil // ambiguous: more than one recurring non-contact
			}
			candidate = u
		}
	}
	return candidate
}

func soleNonContact(users []*artifact.User) *artifact.User {
	var candidate *artifact.User
	for _, u := range users {
		if !isContact(u) {
			if candidate != nil {
				return nil
			}
			candidate = u
		}
	}
	return candidate
}

func isContact(u *artifact.User) bool {
	return u.IsContact != nil && *u.IsContact
}

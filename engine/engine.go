/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package engine wires the region store, extractors, analysers and
// organiser together into one carving run over a directory of memory
// dump files.
package engine

import (
	"github.com/dfir-oss/tgcarve/analyse"
	"github.com/dfir-oss/tgcarve/artifact"
	"github.com/dfir-oss/tgcarve/carvelog"
	"github.com/dfir-oss/tgcarve/extract"
	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/organise"
	"github.com/dfir-oss/tgcarve/record"
	"github.com/dfir-oss/tgcarve/region"
)

// Extractor locates every candidate address of one artifact kind across a
// region store.
type Extractor func(st *region.Store, tbl offsets.Table) []uint64

// UserAnalyser, ConversationAnalyser and MessageAnalyser turn one
// candidate address into its analysed record.
type (
	UserAnalyser         func(st *region.Store, tbl offsets.Table, addr uint64) record.User
	ConversationAnalyser func(st *region.Store, tbl offsets.Table, addr uint64) record.Conversation
	MessageAnalyser      func(st *region.Store, tbl offsets.Table, addr uint64) record.Message
)

// Organiser folds a raw record population into the final artifact tree.
type Organiser func(pop organise.Population) *artifact.Account

// Engine bundles every pluggable stage of a carving run. The zero value is
// not usable; construct one with New.
type Engine struct {
	ExtractUsers         Extractor
	ExtractMessages      Extractor
	ExtractConversations Extractor

	AnalyseUser         UserAnalyser
	AnalyseConversation ConversationAnalyser
	AnalyseMessage      MessageAnalyser

	Organise Organiser

	Log *carvelog.Logger
}

// New builds an Engine wired to the engine's own extract/analyse/organise
// packages.
func New(log *carvelog.Logger) *Engine {
	return &Engine{
		ExtractUsers:         extract.Users,
		ExtractMessages:      extract.Messages,
		ExtractConversations: extract.Conversations,
		AnalyseUser:          analyse.User,
		AnalyseConversation:  analyse.Conversation,
		AnalyseMessage:       analyse.Message,
		Organise:             organise.Organise,
		Log:                  log,
	}
}

// Run opens dumpDir as a region store and carves an artifact.Account out
// of it using the engine's wired stages. The store is closed before Run
// returns.
func (e *Engine) Run(dumpDir string, tbl offsets.Table) (*artifact.Account, error) {
	st, err := region.Open(dumpDir)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	userAddrs := e.ExtractUsers(st, tbl)
	e.logf("found %d candidate user addresses", len(userAddrs))
	var users []record.User
	for _, addr := range userAddrs {
		users = append(users, e.AnalyseUser(st, tbl, addr))
	}

	msgAddrs := e.ExtractMessages(st, tbl)
	e.logf("found %d candidate message addresses", len(msgAddrs))
	var messages []record.Message
	conversations := newConversationSet()
	for _, addr := range msgAddrs {
		m := e.AnalyseMessage(st, tbl, addr)
		messages = append(messages, m)
		if m.Conversation != nil {
			conversations.add(*m.Conversation)
		}
	}

	pop := organise.Population{
		Users:         users,
		Conversations: conversations.slice(),
		Messages:      messages,
	}
	return e.Organise(pop), nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.Log != nil {
		e.Log.Info(format, args...)
	}
}

// conversationSet deduplicates conversation records by address as they are
// discovered transitively through message.Conversation pointers.
type conversationSet struct {
	seen  map[uint64]bool
	order []record.Conversation
}

func newConversationSet() *conversationSet {
	return &conversationSet{seen: make(map[uint64]bool)}
}

func (s *conversationSet) add(c record.Conversation) {
	if s.seen[c.Addr] {
		return
	}
	s.seen[c.Addr] = true
	s.order = append(s.order, c)
}

func (s *conversationSet) slice() []record.Conversation {
	return s.order
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extract

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/region"
)

func putQString(buf []byte, off int, s string) {
	units := utf16.Encode([]rune(s))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(len(units)))
	buf[off+16] = 0x18
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[off+24+2*i:], u)
	}
}

func putPtr(buf []byte, fieldOff int, target uint64) {
	binary.LittleEndian.PutUint64(buf[fieldOff:], target)
}

func openStore(t *testing.T, data []byte, base uint64) *region.Store {
	t.Helper()
	dir := t.TempDir()
	name := fmt.Sprintf("%x_%x.dmp", base, len(data))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	st, err := region.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// placeUser writes a complete UserData candidate at userAddr within buf
// (whose absolute base is base), wiring its five QString pointer fields
// into freshly-written contents blocks starting at scratch, and returns
// the scratch offset just past everything it wrote.
func placeUser(buf []byte, base, userAddr uint64, tbl offsets.Table, scratch int, phone string) int {
	fields := []struct {
		off uint64
		s   string
	}{
		{tbl.Peer.Name, "Display Name"},
		{tbl.User.Firstname, "First"},
		{tbl.User.Lastname, "Last"},
		{tbl.User.Username, "uname"},
		{tbl.User.Phone, phone},
	}
	uoff := int(userAddr - base)
	for _, f := range fields {
		putQString(buf, scratch, f.s)
		putPtr(buf, uoff+int(f.off), base+uint64(scratch))
		scratch += 24 + 2*len(f.s) + 2
	}
	return scratch
}

func TestUsersAnchorByPhone(t *testing.T) {
	base := uint64(0x100000)
	buf := make([]byte, 0x4000)
	tbl := offsets.Default

	userAddr := base + 0x1000
	placeUser(buf, base, userAddr, tbl, 0x100, "12025550123")

	st := openStore(t, buf, base)
	got := Users(st, tbl)

	if len(got) != 1 || got[0] != userAddr {
		t.Fatalf("expected exactly [%#x], got %#x", userAddr, got)
	}
}

func TestUsersWalksAdjacentNeighbour(t *testing.T) {
	base := uint64(0x200000)
	buf := make([]byte, 0x8000)
	tbl := offsets.Default

	userAddr := base + 0x1000
	neighbourAddr := userAddr + tbl.UserStride

	scratch := placeUser(buf, base, userAddr, tbl, 0x100, "12025550123")
	placeUser(buf, base, neighbourAddr, tbl, scratch, "447700900123")

	st := openStore(t, buf, base)
	got := Users(st, tbl)

	seen := map[uint64]bool{}
	for _, a := range got {
		seen[a] = true
	}
	if !seen[userAddr] || !seen[neighbourAddr] {
		t.Fatalf("expected both %#x and %#x, got %#x", userAddr, neighbourAddr, got)
	}
}

func TestMessagesAnchorByTimetext(t *testing.T) {
	base := uint64(0x300000)
	buf := make([]byte, 0x4000)

	msgAddr := base + 0x1000
	contentsAddr := base + 0x2000

	putQString(buf, int(contentsAddr-base), "9:41")
	putPtr(buf, int(msgAddr-base)+int(historyMessageAbove), contentsAddr)

	st := openStore(t, buf, base)
	tbl := offsets.Default
	got := Messages(st, tbl)

	if len(got) != 1 || got[0] != msgAddr {
		t.Fatalf("expected exactly [%#x], got %#x", msgAddr, got)
	}
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package recognise

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

func putQString(buf []byte, off int, s string) int {
	units := utf16.Encode([]rune(s))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(len(units)))
	buf[off+16] = 0x18
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[off+24+2*i:], u)
	}
	return off + 24 + 2*len(units) + 2
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

func TestIsRawUser(t *testing.T) {
	base := uint64(0x100000)
	buf := make([]byte, 0x2000)

	userAddr := base + 0x1000
	nameAddr, firstAddr, lastAddr, userAddr2, phoneAddr :=
		base+0x100, base+0x200, base+0x300, base+0x400, base+0x500

	next := 0x100
	next = putQString(buf, next, "Display Name")
	_ = next
	putQString(buf, 0x200, "First")
	putQString(buf, 0x300, "Last")
	putQString(buf, 0x400, "uname")
	putQString(buf, 0x500, "+12025550123")

	uoff := int(userAddr - base)
	tbl := offsets.Default
	putPtr(buf, uoff+int(tbl.Peer.Name), nameAddr)
	putPtr(buf, uoff+int(tbl.User.Firstname), firstAddr)
	putPtr(buf, uoff+int(tbl.User.Lastname), lastAddr)
	putPtr(buf, uoff+int(tbl.User.Username), userAddr2)
	putPtr(buf, uoff+int(tbl.User.Phone), phoneAddr)

	st := openStore(t, buf, base)

	if !IsRawUser(st, tbl, userAddr) {
		t.Fatal("expected a fully-populated user candidate to validate")
	}

	// break one pointer and confirm it now fails
	buf2 := make([]byte, len(buf))
	copy(buf2, buf)
	putPtr(buf2, uoff+int(tbl.User.Phone), base+0xdead)
	st2 := openStore(t, buf2, base)
	if IsRawUser(st2, tbl, userAddr) {
		t.Fatal("expected a broken phone pointer to invalidate the candidate")
	}
}

func TestIsPeerData(t *testing.T) {
	base := uint64(0x200000)
	buf := make([]byte, 0x1000)
	nameAddr := base + 0x100
	putQString(buf, 0x100, "My Group")

	tbl := offsets.Default
	peerAddr := base + 0x40
	poff := int(peerAddr - base)
	putPtr(buf, poff+int(tbl.Peer.Name), nameAddr)

	st := openStore(t, buf, base)
	if !IsPeerData(st, tbl, peerAddr) {
		t.Fatal("expected peer data candidate to validate")
	}
}

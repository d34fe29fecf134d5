/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package analyse

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/record"
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

func TestMessageTextAndDate(t *testing.T) {
	base := uint64(0x40000)
	buf := make([]byte, 0x1000)
	tbl := offsets.Default

	msgAddr := base + 0x200
	textAddr := base + 0x100
	putQString(buf, 0x100, "hi_")

	moff := int(msgAddr - base)
	binary.LittleEndian.PutUint64(buf[moff+int(tbl.Message.Text):], textAddr)
	binary.LittleEndian.PutUint32(buf[moff+int(tbl.Message.Date):], 1700000000)

	st := openStore(t, buf, base)
	m := Message(st, tbl, msgAddr)

	if !m.HasText || m.Text != "hi" {
		t.Fatalf("expected text 'hi', got %q (has=%v)", m.Text, m.HasText)
	}
	if !m.HasDate {
		t.Fatal("expected a date to be recovered")
	}
	if got := m.Date.Format("2006-01-02T15:04:05Z"); got != "2023-11-14T22:13:20Z" {
		t.Fatalf("unexpected date: %s", got)
	}
}

func TestAttachmentGeographicLocation(t *testing.T) {
	base := uint64(0x50000)
	buf := make([]byte, 0x1000)
	tbl := offsets.Default

	mediaAddr := base + 0x10
	titleAddr := base + 0x100
	descAddr := base + 0x200
	putQString(buf, 0x100, "Home")
	putQString(buf, 0x200, "Meetup spot")

	moff := int(mediaAddr - base)
	binary.LittleEndian.PutUint64(buf[moff+int(tbl.Location.Title):], titleAddr)
	binary.LittleEndian.PutUint64(buf[moff+int(tbl.Location.Description):], descAddr)
	binary.LittleEndian.PutUint64(buf[moff+int(tbl.Location.Latitude):], math.Float64bits(40.0))
	binary.LittleEndian.PutUint64(buf[moff+int(tbl.Location.Longitude):], math.Float64bits(-3.0))

	st := openStore(t, buf, base)
	a, ok := Attachment(st, tbl, mediaAddr)
	if !ok {
		t.Fatal("expected attachment to be recognised")
	}
	if a.Kind != record.AttachmentGeographicLocation {
		t.Fatalf("expected geographic location kind, got %d", a.Kind)
	}
	if a.Latitude != 40.0 || a.Longitude != -3.0 {
		t.Fatalf("unexpected coordinates: %v %v", a.Latitude, a.Longitude)
	}
}

/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package offsets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesAppliesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "offsets.ini")
	content := "[User]\nPhone=600\n\n[Stride]\nUser=600\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write override file: %v", err)
	}

	tbl, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("load overrides: %v", err)
	}
	if tbl.User.Phone != 600 {
		t.Fatalf("expected overridden phone offset 600, got %d", tbl.User.Phone)
	}
	if tbl.UserStride != 600 {
		t.Fatalf("expected overridden stride 600, got %d", tbl.UserStride)
	}
	if tbl.Peer.Name != Default.Peer.Name {
		t.Fatalf("expected untouched field to keep default %d, got %d", Default.Peer.Name, tbl.Peer.Name)
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	if _, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Fatal("expected an error for a missing override file")
	}
}

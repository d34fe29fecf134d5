/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dchest/safefile"
	"github.com/klauspost/compress/gzip"
)

var ErrTmpDirExists = errors.New("staging directory already exists")

// stageDumps copies every *.dmp file from srcDir into a freshly-created
// tmpDir, transparently decompressing any *.dmp.gz file it finds along
// the way. tmpDir must not already exist: staging into a directory that
// might hold a previous run's leftovers is refused outright.
func stageDumps(srcDir, tmpDir string) error {
	if _, err := os.Stat(tmpDir); err == nil {
		return ErrTmpDirExists
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Mkdir(tmpDir, 0750); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".dmp"):
			if err := copyFile(filepath.Join(srcDir, name), filepath.Join(tmpDir, name)); err != nil {
				return err
			}
		case strings.HasSuffix(name, ".dmp.gz"):
			dst := strings.TrimSuffix(name, ".gz")
			if err := gunzipFile(filepath.Join(srcDir, name), filepath.Join(tmpDir, dst)); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyFile copies src to dst via a temp-file-then-rename, so a dump staged
// partway through a failed copy never appears under dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	var out *safefile.File
	if out, err = safefile.Create(dst, 0640); err != nil {
		return err
	}
	n := out.Name()
	if _, err = io.Copy(out, in); err != nil {
		out.File.Close()
		os.Remove(n)
	} else if err = out.Commit(); err != nil {
		out.File.Close()
		os.Remove(n)
	}
	return err
}

func gunzipFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	var out *safefile.File
	if out, err = safefile.Create(dst, 0640); err != nil {
		return err
	}
	n := out.Name()
	if _, err = io.Copy(out, zr); err != nil {
		out.File.Close()
		os.Remove(n)
	} else if err = out.Commit(); err != nil {
		out.File.Close()
		os.Remove(n)
	}
	return err
}

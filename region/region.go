/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package region memory-maps a directory of raw process-memory dump files
// and answers bounded address-to-bytes lookups across the whole set.
//
// Dump files are named <hex_base>_<hex_size>.dmp, each holding exactly
// hex_size bytes of the target process's virtual address space starting at
// virtual address hex_base. Regions never overlap and are immutable once a
// Store is constructed.
package region

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	ErrOutsideRegion  = errors.New("address range is not fully inside a single region")
	ErrBadFilename    = errors.New("dump filename is not <hex_base>_<hex_size>.dmp")
	ErrOverlapping    = errors.New("dump regions overlap")
	ErrNoDumpFiles    = errors.New("directory contains no .dmp files")
	ErrEmptyDirectory = errors.New("dump directory does not exist or cannot be read")
)

// Region is one memory-mapped dump file.
type Region struct {
	Base uint64
	Size uint64

	fio  *os.File
	data []byte
}

// Contains reports whether [addr, addr+length) lies entirely within r.
func (r *Region) Contains(addr uint64, length uint64) bool {
	if length == 0 {
		return addr >= r.Base && addr <= r.Base+r.Size
	}
	end := addr + length
	return addr >= r.Base && end > addr && end <= r.Base+r.Size
}

// Bytes returns the raw backing slice for the region, starting at Base.
func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) read(addr uint64, length uint64) ([]byte, bool) {
	if !r.Contains(addr, length) {
		return nil, false
	}
	off := addr - r.Base
	return r.data[off : off+length], true
}

func (r *Region) close() error {
	var err error
	if r.data != nil {
		err = unix.Munmap(r.data)
		r.data = nil
	}
	if r.fio != nil {
		if cerr := r.fio.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Store holds the full, immutable set of mapped regions for one dump
// directory, sorted by base address.
type Store struct {
	regions []*Region
}

// Open enumerates every *.dmp file directly inside dir, memory-maps each
// one read-only, and returns the resulting Store. Enumeration follows
// directory (lexical) order; the returned Store never mutates once built.
func Open(dir string) (*Store, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, ErrEmptyDirectory
	}
	var regions []*Region
	for _, ent := range ents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".dmp") {
			continue
		}
		base, size, err := parseDumpName(ent.Name())
		if err != nil {
			continue
		}
		r, err := mapFile(dir+string(os.PathSeparator)+ent.Name(), base, size)
		if err != nil {
			continue
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		return nil, ErrNoDumpFiles
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Base < regions[j].Base })
	for i := 1; i < len(regions); i++ {
		if regions[i].Base < regions[i-1].Base+regions[i-1].Size {
			return nil, ErrOverlapping
		}
	}
	return &Store{regions: regions}, nil
}

// Close unmaps every region and closes the backing files.
func (s *Store) Close() (err error) {
	for _, r := range s.regions {
		if cerr := r.close(); cerr != nil {
			err = cerr
		}
	}
	return
}

// Regions exposes the sorted, immutable region set.
func (s *Store) Regions() []*Region {
	return s.regions
}

// regionFor finds the (unique, non-overlapping) region that could contain
// addr, via binary search over sorted bases.
func (s *Store) regionFor(addr uint64) *Region {
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].Base+s.regions[i].Size > addr
	})
	if i < len(s.regions) && s.regions[i].Base <= addr {
		return s.regions[i]
	}
	return nil
}

// Read returns exactly length bytes starting at addr, or (nil, false) if
// that window is not fully contained in a single region.
func (s *Store) Read(addr uint64, length uint64) ([]byte, bool) {
	r := s.regionFor(addr)
	if r == nil {
		return nil, false
	}
	return r.read(addr, length)
}

// ReadSurroundings returns the window [addr-above, addr+below), or
// (nil, false) if that window would cross a region boundary. above and
// below must be expressible without wrapping the address space.
func (s *Store) ReadSurroundings(addr uint64, above, below int64) ([]byte, bool) {
	if above < 0 || below < 0 {
		return nil, false
	}
	if uint64(above) > addr {
		return nil, false
	}
	start := addr - uint64(above)
	length := uint64(above) + uint64(below)
	return s.Read(start, length)
}

func parseDumpName(name string) (base uint64, size uint64, err error) {
	trimmed := strings.TrimSuffix(name, ".dmp")
	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) != 2 {
		return 0, 0, ErrBadFilename
	}
	if base, err = strconv.ParseUint(parts[0], 16, 64); err != nil {
		return 0, 0, ErrBadFilename
	}
	if size, err = strconv.ParseUint(parts[1], 16, 64); err != nil {
		return 0, 0, ErrBadFilename
	}
	return
}

func mapFile(path string, base, size uint64) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if uint64(fi.Size()) < size || size == 0 {
		f.Close()
		return nil, ErrBadFilename
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, err
	}
	unix.Madvise(data, unix.MADV_RANDOM)
	return &Region{Base: base, Size: size, fio: f, data: data}, nil
}

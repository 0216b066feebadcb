// Package anvil decodes the region file container (.mca/.mcr): an 8 KiB
// header of location and timestamp tables followed by compressed NBT
// chunk payloads arranged across 4 KiB sectors.
package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/OCharnyshevich/mcworld/pkg/world/compress"
	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

const (
	sectorSize    = 4096
	headerSectors = 2
	slotCount     = 1024

	schemeGzip = 1
	schemeZlib = 2
	schemeRaw  = 3
)

var (
	// ErrHeaderShort is returned when the file is smaller than the
	// mandatory 8 KiB location+timestamp header.
	ErrHeaderShort = errors.New("anvil: file shorter than 8 KiB region header")
	// ErrBadSector is returned when a location entry points outside the
	// file or into the header sectors.
	ErrBadSector = errors.New("anvil: chunk sector offset/count out of bounds")
	// ErrBadLength is returned when a chunk's declared length does not
	// fit within its allotted sectors.
	ErrBadLength = errors.New("anvil: chunk declared length invalid for its sector allocation")
)

// UnsupportedCompressionError reports a compression_scheme byte outside
// {1 (gzip), 2 (zlib), 3 (raw)}.
type UnsupportedCompressionError struct {
	Scheme byte
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("anvil: unsupported chunk compression scheme %d", e.Scheme)
}

// Chunk is one decoded slot of a region file.
type Chunk struct {
	// SlotX, SlotZ are the region-relative chunk coordinates (0-31)
	// derived from the slot's position in the location table, i.e.
	// (x & 31, z & 31).
	SlotX, SlotZ int
	Timestamp    int64
	Root         *nbt.Tag
}

// Region is the decoded result of a single .mca/.mcr file: every chunk
// that decoded successfully, plus the errors recorded for slots that did
// not (partial-failure policy — one corrupt chunk never prevents the
// others from yielding a Compound).
type Region struct {
	chunks []Chunk
	errs   []error
}

// Chunks returns every successfully decoded chunk, in slot order.
func (r *Region) Chunks() []Chunk {
	return r.chunks
}

// Errors returns the per-slot failures recorded while decoding, in slot
// order. A non-empty Errors() does not imply Open failed: Open only fails
// when the file itself could not be parsed as a region archive.
func (r *Region) Errors() []error {
	return r.errs
}

// Open memory-maps path and decodes every present chunk slot, feeding
// each decompressed payload to nbt.DecodeRootWithOptions. log receives a
// warning per corrupt chunk; if nil, a discarding logger is used.
func Open(path string, log *slog.Logger, opts nbt.DecodeOptions) (*Region, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("anvil: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("anvil: stat %s: %w", path, err)
	}
	fileLen := info.Size()
	if fileLen < headerSectors*sectorSize {
		return nil, fmt.Errorf("anvil: %s: %w", path, ErrHeaderShort)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("anvil: mmap %s: %w", path, err)
	}
	defer data.Unmap()

	region := &Region{}
	for slot := 0; slot < slotCount; slot++ {
		entry := data[slot*4 : slot*4+4]
		offset := uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
		count := uint32(entry[3])
		if offset == 0 && count == 0 {
			continue // absent chunk
		}

		ts := int64(binary.BigEndian.Uint32(data[sectorSize+slot*4 : sectorSize+slot*4+4]))

		chunk, err := decodeSlot(data, fileLen, offset, count, opts)
		if err != nil {
			log.Warn("skip corrupt region chunk", "path", path, "slot", slot, "error", err)
			region.errs = append(region.errs, fmt.Errorf("slot %d: %w", slot, err))
			continue
		}

		region.chunks = append(region.chunks, Chunk{
			SlotX:     slot % 32,
			SlotZ:     slot / 32,
			Timestamp: ts,
			Root:      chunk,
		})
	}

	return region, nil
}

func decodeSlot(data []byte, fileLen int64, offset, count uint32, opts nbt.DecodeOptions) (*nbt.Tag, error) {
	if offset < headerSectors {
		return nil, ErrBadSector
	}
	start := int64(offset) * sectorSize
	end := start + int64(count)*sectorSize
	if end > fileLen || start >= end {
		return nil, ErrBadSector
	}

	sector := data[start:end]
	if len(sector) < 5 {
		return nil, ErrBadLength
	}

	length := int32(binary.BigEndian.Uint32(sector[0:4]))
	maxLen := int32(count)*sectorSize - 4
	if length < 1 || length > maxLen {
		return nil, ErrBadLength
	}

	scheme := sector[4]
	payload := sector[5 : 4+length]

	var decoded []byte
	var err error
	switch scheme {
	case schemeGzip:
		decoded, err = compress.InflateGzip(payload)
	case schemeZlib:
		decoded, err = compress.InflateZlib(payload)
	case schemeRaw:
		decoded, err = compress.Raw(payload)
	default:
		return nil, &UnsupportedCompressionError{Scheme: scheme}
	}
	if err != nil {
		return nil, err
	}

	root, err := nbt.DecodeRootWithOptions(decoded, opts)
	if err != nil {
		return nil, err
	}
	return root, nil
}

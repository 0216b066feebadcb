// Package chunkscan decodes the packed, palette-indexed block arrays
// inside chunk sections and enumerates the world-space positions of
// blocks matching a requested set of resource locations.
package chunkscan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"

	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

const (
	cellsPerSection = 4096
	sectionWidth    = 16
)

// ErrUnsupportedPackingFormat reports a section whose data LongArray
// length matches the pre-1.16 straddling packing scheme (indices
// crossing long boundaries), which this package does not decode.
var ErrUnsupportedPackingFormat = errors.New("chunkscan: pre-1.16 straddling packed-index format is not supported")

// SectionCorruptError reports a section whose data LongArray length
// matches neither the no-straddle formula nor the straddling formula.
type SectionCorruptError struct {
	Reason string
}

func (e *SectionCorruptError) Error() string {
	return fmt.Sprintf("chunkscan: corrupt section: %s", e.Reason)
}

// Block is a single matched block: its resource location and world
// coordinates.
type Block struct {
	ResourceLocation string
	X, Y, Z          int32
}

// InspectChunks decodes every chunk root and returns the matched blocks
// keyed by resource location, using a discarding logger for corrupt
// sections.
func InspectChunks(targets []string, roots []*nbt.Tag) map[string][]Block {
	return InspectChunksWithLogger(targets, roots, nil)
}

// InspectChunksWithLogger is InspectChunks with an injected logger for
// per-section corruption warnings. A nil logger discards them.
func InspectChunksWithLogger(targets []string, roots []*nbt.Tag, log *slog.Logger) map[string][]Block {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	result := make(map[string][]Block)
	for _, root := range roots {
		inspectChunk(targetSet, root, result, log)
	}
	return result
}

func inspectChunk(targets map[string]bool, root *nbt.Tag, result map[string][]Block, log *slog.Logger) {
	comp, ok := root.AsCompound()
	if !ok {
		return
	}

	xPosTag, ok1 := comp.Get("xPos")
	zPosTag, ok2 := comp.Get("zPos")
	if !ok1 || !ok2 {
		return
	}
	cx, ok1 := xPosTag.AsInt()
	cz, ok2 := zPosTag.AsInt()
	if !ok1 || !ok2 {
		return
	}

	sectionsTag, ok := comp.Get("sections")
	if !ok {
		return
	}
	sections, elemKind, ok := sectionsTag.AsList()
	if !ok || elemKind != nbt.KindCompound || len(sections) == 0 {
		return
	}

	for _, sec := range sections {
		if err := inspectSection(targets, cx, cz, sec, result); err != nil {
			log.Warn("skip corrupt chunk section", "xPos", cx, "zPos", cz, "error", err)
		}
	}
}

func inspectSection(targets map[string]bool, cx, cz int32, sec *nbt.Tag, result map[string][]Block) error {
	secComp, ok := sec.AsCompound()
	if !ok {
		return nil // missing Y/block_states below simply skip, not an error
	}

	yTag, ok := secComp.Get("Y")
	if !ok {
		return nil
	}
	yVal, ok := yTag.AsByte()
	if !ok {
		return nil
	}
	sectionY := int32(yVal)

	bsTag, ok := secComp.Get("block_states")
	if !ok {
		return nil
	}
	bsComp, ok := bsTag.AsCompound()
	if !ok {
		return nil
	}

	paletteTag, ok := bsComp.Get("palette")
	if !ok {
		return nil
	}
	paletteList, elemKind, ok := paletteTag.AsList()
	if !ok || elemKind != nbt.KindCompound || len(paletteList) == 0 {
		return nil
	}

	names := make([]string, len(paletteList))
	anyTarget := false
	for i, p := range paletteList {
		pc, ok := p.AsCompound()
		if !ok {
			continue
		}
		nameTag, ok := pc.Get("Name")
		if !ok {
			continue
		}
		name, _ := nameTag.AsString()
		names[i] = name
		if targets[name] {
			anyTarget = true
		}
	}
	if !anyTarget {
		return nil // fast path: nothing in this section's palette is wanted
	}

	dataTag, hasData := bsComp.Get("data")
	if !hasData {
		// Absent data means the section is uniform at palette index 0.
		if targets[names[0]] {
			emitUniform(names[0], cx, cz, sectionY, result)
		}
		return nil
	}

	longs, ok := dataTag.AsLongArray()
	if !ok {
		return nil
	}

	bitsPerIndex := paletteBits(len(names))
	perLong := 64 / bitsPerIndex
	noStraddleLen := (cellsPerSection + perLong - 1) / perLong
	straddleLen := (cellsPerSection*bitsPerIndex + 63) / 64

	switch {
	case len(longs) == noStraddleLen:
		// expected shape, proceed
	case len(longs) == straddleLen && straddleLen != noStraddleLen:
		return ErrUnsupportedPackingFormat
	default:
		return &SectionCorruptError{Reason: fmt.Sprintf("data length %d long(s), want %d for %d bits/index", len(longs), noStraddleLen, bitsPerIndex)}
	}

	mask := uint64(1)<<uint(bitsPerIndex) - 1
	for i := 0; i < cellsPerSection; i++ {
		longIdx := i / perLong
		bitIdx := (i % perLong) * bitsPerIndex
		idx := int((uint64(longs[longIdx]) >> uint(bitIdx)) & mask)
		if idx < 0 || idx >= len(names) {
			continue
		}
		name := names[idx]
		if !targets[name] {
			continue
		}
		x := int32(i % sectionWidth)
		z := int32((i / sectionWidth) % sectionWidth)
		y := int32(i / (sectionWidth * sectionWidth))
		result[name] = append(result[name], Block{
			ResourceLocation: name,
			X:                cx*sectionWidth + x,
			Y:                sectionY*sectionWidth + y,
			Z:                cz*sectionWidth + z,
		})
	}
	return nil
}

func emitUniform(name string, cx, cz, sectionY int32, result map[string][]Block) {
	for i := 0; i < cellsPerSection; i++ {
		x := int32(i % sectionWidth)
		z := int32((i / sectionWidth) % sectionWidth)
		y := int32(i / (sectionWidth * sectionWidth))
		result[name] = append(result[name], Block{
			ResourceLocation: name,
			X:                cx*sectionWidth + x,
			Y:                sectionY*sectionWidth + y,
			Z:                cz*sectionWidth + z,
		})
	}
}

// paletteBits returns max(4, ceil(log2(n))), the packing width mandated
// for a palette of n entries.
func paletteBits(n int) int {
	if n <= 1 {
		return 4
	}
	b := bits.Len(uint(n - 1))
	if b < 4 {
		return 4
	}
	return b
}

package chunkscan

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

func TestPaletteBits(t *testing.T) {
	require.Equal(t, 4, paletteBits(1))
	require.Equal(t, 4, paletteBits(2))
	require.Equal(t, 4, paletteBits(16))
	require.Equal(t, 5, paletteBits(17))
	require.Equal(t, 8, paletteBits(256))
	require.Equal(t, 9, paletteBits(257))
}

// nbtWriter hand-assembles raw NBT bytes for test fixtures; the nbt
// package itself exposes no tag constructors outside of decoding, so
// building a Tag tree for tests means writing the wire form, same as
// pkg/world/anvil's region_test.go does for chunk payloads.
type nbtWriter struct {
	buf bytes.Buffer
}

func (w *nbtWriter) u16(v uint16) { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *nbtWriter) i32(v int32)  { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *nbtWriter) i64(v int64)  { binary.Write(&w.buf, binary.BigEndian, v) }
func (w *nbtWriter) name(s string) {
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *nbtWriter) namedByte(name string, v int8) {
	w.buf.WriteByte(0x01)
	w.name(name)
	w.buf.WriteByte(byte(v))
}

func (w *nbtWriter) namedInt(name string, v int32) {
	w.buf.WriteByte(0x03)
	w.name(name)
	w.i32(v)
}

func (w *nbtWriter) namedString(name, v string) {
	w.buf.WriteByte(0x08)
	w.name(name)
	w.u16(uint16(len(v)))
	w.buf.WriteString(v)
}

func (w *nbtWriter) namedLongArray(name string, vs []int64) {
	w.buf.WriteByte(0x0C)
	w.name(name)
	w.i32(int32(len(vs)))
	for _, v := range vs {
		w.i64(v)
	}
}

// paletteEntry writes one anonymous Compound {Name: String} list element.
func (w *nbtWriter) paletteEntry(resourceLocation string) {
	w.namedString("Name", resourceLocation)
	w.buf.WriteByte(0x00) // End of this compound
}

func (w *nbtWriter) namedListHeader(name string, elemKind byte, n int) {
	w.buf.WriteByte(0x09)
	w.name(name)
	w.buf.WriteByte(elemKind)
	w.i32(int32(n))
}

func (w *nbtWriter) end() { w.buf.WriteByte(0x00) }

// buildChunk assembles a minimal but complete chunk root:
//
//	"" { xPos: Int, zPos: Int, sections: List<Compound>[ section... ] }
//
// where each section is {Y: Byte, block_states: Compound{palette: List<Compound>, data: LongArray?}}.
func buildChunk(t *testing.T, cx, cz int32, sections [][]byte) *nbt.Tag {
	t.Helper()
	var w nbtWriter
	w.buf.WriteByte(0x0A) // root Compound ""
	w.u16(0)

	w.namedInt("xPos", cx)
	w.namedInt("zPos", cz)

	w.namedListHeader("sections", 0x0A, len(sections))
	for _, s := range sections {
		w.buf.Write(s)
	}
	w.end()

	root, err := nbt.DecodeRoot(w.buf.Bytes())
	require.NoError(t, err)
	return root
}

// buildSection returns the raw bytes of one anonymous section Compound's
// payload (its fields, terminated by End — no type/name header, since
// list elements carry none).
func buildSection(t *testing.T, y int8, palette []string, data []int64) []byte {
	t.Helper()
	var w nbtWriter
	w.namedByte("Y", y)

	w.buf.WriteByte(0x0A) // block_states Compound
	w.name("block_states")

	w.namedListHeader("palette", 0x0A, len(palette))
	for _, name := range palette {
		var pw nbtWriter
		pw.paletteEntry(name)
		w.buf.Write(pw.buf.Bytes())
	}
	if data != nil {
		w.namedLongArray("data", data)
	}
	w.end() // end block_states

	w.end() // end section compound
	return w.buf.Bytes()
}

// packIndices packs per-cell palette indices into the no-straddle format
// at the given bit width.
func packIndices(bitsPerIndex int, index func(cell int) int) []int64 {
	perLong := 64 / bitsPerIndex
	n := (cellsPerSection + perLong - 1) / perLong
	out := make([]int64, n)
	mask := int64(1)<<uint(bitsPerIndex) - 1
	for i := 0; i < cellsPerSection; i++ {
		v := int64(index(i)) & mask
		out[i/perLong] |= v << uint((i%perLong)*bitsPerIndex)
	}
	return out
}

func TestInspectChunksUniformSectionNoDataArray(t *testing.T) {
	section := buildSection(t, 4, []string{"minecraft:air"}, nil)
	root := buildChunk(t, 0, 0, [][]byte{section})

	matches := InspectChunks([]string{"minecraft:air"}, []*nbt.Tag{root})
	require.Len(t, matches["minecraft:air"], cellsPerSection)
	for _, blk := range matches["minecraft:air"] {
		require.True(t, blk.Y >= 4*16 && blk.Y < 5*16)
	}
}

func TestInspectChunksNineEntryPalettePacked(t *testing.T) {
	palette := []string{
		"minecraft:air", "minecraft:stone", "minecraft:dirt",
		"minecraft:grass_block", "minecraft:water", "minecraft:sand",
		"minecraft:gravel", "minecraft:bedrock", "minecraft:granite",
	}
	require.Equal(t, 4, paletteBits(len(palette)))

	// Every 9th cell (wrapping the palette) is bedrock (index 7).
	data := packIndices(4, func(cell int) int { return cell % len(palette) })

	section := buildSection(t, 0, palette, data)
	root := buildChunk(t, 2, -1, [][]byte{section})

	matches := InspectChunks([]string{"minecraft:bedrock", "minecraft:granite"}, []*nbt.Tag{root})
	require.NotEmpty(t, matches["minecraft:bedrock"])
	require.NotEmpty(t, matches["minecraft:granite"])
	for _, blk := range matches["minecraft:bedrock"] {
		require.Equal(t, "minecraft:bedrock", blk.ResourceLocation)
		require.True(t, blk.X >= 2*16 && blk.X < 3*16)
		require.True(t, blk.Z >= -16 && blk.Z < 0)
	}
}

func TestInspectSectionRejectsStraddledPacking(t *testing.T) {
	// 17 palette entries need 5 bits/index: the no-straddle layout takes
	// 342 longs (12 whole indices per long), the pre-1.16 straddling
	// layout exactly 320 (4096*5/64). A 320-long data array is therefore
	// the old format, not corruption.
	palette := make([]string, 17)
	for i := range palette {
		palette[i] = fmt.Sprintf("minecraft:block_%d", i)
	}
	require.Equal(t, 5, paletteBits(len(palette)))

	section := buildSection(t, 0, palette, make([]int64, 320))
	root := buildChunk(t, 0, 0, [][]byte{section})

	comp, ok := root.AsCompound()
	require.True(t, ok)
	sectionsTag, ok := comp.Get("sections")
	require.True(t, ok)
	sections, _, ok := sectionsTag.AsList()
	require.True(t, ok)
	require.Len(t, sections, 1)

	targets := map[string]bool{palette[0]: true}
	err := inspectSection(targets, 0, 0, sections[0], map[string][]Block{})
	require.ErrorIs(t, err, ErrUnsupportedPackingFormat)
}

func TestInspectChunksCorruptDataLengthIsIsolated(t *testing.T) {
	palette := []string{"minecraft:air", "minecraft:stone"}
	badData := []int64{1, 2, 3} // far short of the 256 longs a 4-bit packing needs

	section := buildSection(t, 0, palette, badData)
	root := buildChunk(t, 0, 0, [][]byte{section})

	matches := InspectChunks([]string{"minecraft:stone"}, []*nbt.Tag{root})
	require.Empty(t, matches["minecraft:stone"])
}

func TestInspectChunksIgnoresSectionsWithoutTargetInPalette(t *testing.T) {
	section := buildSection(t, 0, []string{"minecraft:air"}, nil)
	root := buildChunk(t, 0, 0, [][]byte{section})

	matches := InspectChunks([]string{"minecraft:diamond_ore"}, []*nbt.Tag{root})
	require.Empty(t, matches)
}

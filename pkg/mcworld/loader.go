// Package mcworld ties the region, NBT, and chunk-inspection decoders
// together into a single world-level descriptor: load a directory or a
// standalone file, then search or project the result.
package mcworld

import (
	"errors"
	"fmt"
	"os"

	"github.com/OCharnyshevich/mcworld/pkg/world/compress"
	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

// Format selects the decompression/decode convention for a standalone
// binary file passed to LoadBinary.
type Format int

const (
	// FormatNbt is a bare NBT file: a single root Compound, optionally
	// gzip- or zlib-framed.
	FormatNbt Format = iota
	// FormatSchematic (.litematic) uses identical framing to FormatNbt;
	// its inner tree semantics are not interpreted here.
	FormatSchematic
)

// LoadBinary reads path whole, detects its compression framing, and
// decodes the result as a single NBT tree. format is accepted for
// caller clarity and future divergence between Nbt and Schematic
// handling; both currently share one decode path.
func LoadBinary(path string, format Format, opts nbt.DecodeOptions) (*nbt.Tag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcworld: read %s: %w", path, err)
	}

	decoded, err := detectAndDecompress(raw)
	if err != nil {
		return nil, fmt.Errorf("mcworld: %s: %w", path, err)
	}

	root, err := nbt.DecodeRootWithOptions(decoded, opts)
	if err != nil {
		return nil, fmt.Errorf("mcworld: decode %s: %w", path, err)
	}
	return root, nil
}

// detectAndDecompress tries gzip, then zlib, then raw passthrough, in
// that order, accepting the first attempt whose output begins with the
// Compound tag id (10) — a standalone NBT/litematic file is always a
// single root Compound.
func detectAndDecompress(raw []byte) ([]byte, error) {
	if out, err := compress.InflateGzip(raw); err == nil && startsWithCompound(out) {
		return out, nil
	}
	if out, err := compress.InflateZlib(raw); err == nil && startsWithCompound(out) {
		return out, nil
	}
	if out, err := compress.Raw(raw); err == nil && startsWithCompound(out) {
		return out, nil
	}
	return nil, errors.New("no decompression scheme produced a Compound-rooted tree")
}

func startsWithCompound(b []byte) bool {
	return len(b) > 0 && b[0] == byte(nbt.KindCompound)
}

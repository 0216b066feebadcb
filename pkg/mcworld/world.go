package mcworld

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCharnyshevich/mcworld/pkg/world/anvil"
	"github.com/OCharnyshevich/mcworld/pkg/world/chunkscan"
	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

// worldVersion is the value returned by World.Version. The source
// formats carry a DataVersion/Version field in level metadata the core
// does not parse (see DESIGN.md open questions); a constant placeholder
// is returned instead of adding bespoke level.dat parsing out of scope.
const worldVersion = "0.0.0"

// ErrMissingDirectory is returned when a directory path does not exist.
var ErrMissingDirectory = errors.New("mcworld: world directory does not exist")

// ErrMissingRegionFolder is returned when a world directory has no
// region subdirectory.
var ErrMissingRegionFolder = errors.New("mcworld: world directory has no region subfolder")

// UnsupportedExtensionError reports a standalone file whose extension
// none of the dispatch rules recognize.
type UnsupportedExtensionError struct {
	Path string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("mcworld: unsupported file extension: %s", e.Path)
}

// World is every root Compound decoded from a path, plus the errors
// recorded along the way (directory loads apply the region package's
// partial-failure policy per file).
type World struct {
	roots []*nbt.Tag
	errs  []error
	log   *slog.Logger
}

// Roots returns every decoded root Compound, in discovery order.
func (w *World) Roots() []*nbt.Tag { return w.roots }

// Errors returns the failures recorded while loading: per-file and
// per-chunk failures of a directory load, and per-chunk failures of a
// single region file. Empty for .nbt/.litematic/.json loads, which fail
// outright instead.
func (w *World) Errors() []error { return w.errs }

// Load decodes path with default options. log may be nil to discard
// diagnostics.
func Load(path string, log *slog.Logger) (*World, error) {
	return LoadWithOptions(path, log, nbt.DefaultDecodeOptions())
}

// LoadWithOptions decodes path: a directory is read via its region
// subfolder; a single file is dispatched by extension.
func LoadWithOptions(path string, log *slog.Logger, opts nbt.DecodeOptions) (*World, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingDirectory, path)
		}
		return nil, fmt.Errorf("mcworld: stat %s: %w", path, err)
	}

	if info.IsDir() {
		return loadDirectory(path, log, opts)
	}
	return loadSingleFile(path, log, opts)
}

func loadDirectory(path string, log *slog.Logger, opts nbt.DecodeOptions) (*World, error) {
	regionDir := filepath.Join(path, "region")
	entries, err := os.ReadDir(regionDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingRegionFolder, regionDir)
	}

	w := &World{log: log}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".mca" && ext != ".mcr" {
			continue
		}

		regionPath := filepath.Join(regionDir, entry.Name())
		region, err := anvil.Open(regionPath, log, opts)
		if err != nil {
			log.Warn("skip unreadable region file", "path", regionPath, "error", err)
			w.errs = append(w.errs, fmt.Errorf("%s: %w", regionPath, err))
			continue
		}
		for _, chunk := range region.Chunks() {
			w.roots = append(w.roots, chunk.Root)
		}
		for _, chunkErr := range region.Errors() {
			w.errs = append(w.errs, fmt.Errorf("%s: %w", regionPath, chunkErr))
		}
	}
	if len(w.roots) == 0 && len(w.errs) > 0 {
		// Partial failure is tolerated only while something decoded;
		// losing every file/chunk is a failed load.
		return nil, w.errs[0]
	}
	return w, nil
}

func loadSingleFile(path string, log *slog.Logger, opts nbt.DecodeOptions) (*World, error) {
	ext := strings.ToLower(filepath.Ext(path))
	w := &World{log: log}

	switch ext {
	case ".mca", ".mcr":
		region, err := anvil.Open(path, log, opts)
		if err != nil {
			return nil, err
		}
		for _, chunk := range region.Chunks() {
			w.roots = append(w.roots, chunk.Root)
		}
		for _, chunkErr := range region.Errors() {
			w.errs = append(w.errs, fmt.Errorf("%s: %w", path, chunkErr))
		}
		if len(w.roots) == 0 && len(w.errs) > 0 {
			// Every chunk slot failed: report the first failure instead
			// of succeeding with an empty World.
			return nil, w.errs[0]
		}

	case ".nbt":
		root, err := LoadBinary(path, FormatNbt, opts)
		if err != nil {
			return nil, err
		}
		w.roots = append(w.roots, root)

	case ".litematic":
		root, err := LoadBinary(path, FormatSchematic, opts)
		if err != nil {
			return nil, err
		}
		w.roots = append(w.roots, root)

	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mcworld: read %s: %w", path, err)
		}
		root, err := nbt.FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("mcworld: decode %s: %w", path, err)
		}
		w.roots = append(w.roots, root)

	default:
		return nil, &UnsupportedExtensionError{Path: path}
	}

	return w, nil
}

// SearchCompound searches every root for Compound tags named name,
// depth-first preorder, and reports whether any were found.
func (w *World) SearchCompound(name string) (bool, []*nbt.Compound) {
	var out []*nbt.Compound
	for _, root := range w.roots {
		for _, tag := range nbt.SearchByName(root, name, false) {
			if c, ok := tag.AsCompound(); ok {
				out = append(out, c)
			}
		}
	}
	return len(out) > 0, out
}

// SearchBlocks inspects every loaded chunk root for blocks matching
// targets.
func (w *World) SearchBlocks(targets []string) map[string][]chunkscan.Block {
	return chunkscan.InspectChunksWithLogger(targets, w.roots, w.log)
}

// ToJSON writes the JSON projection of the first loaded root Compound
// to path.
func (w *World) ToJSON(path string) error {
	if len(w.roots) == 0 {
		return fmt.Errorf("mcworld: no root compound loaded")
	}
	text, err := nbt.ToJSON(w.roots[0])
	if err != nil {
		return fmt.Errorf("mcworld: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("mcworld: write %s: %w", path, err)
	}
	return nil
}

// Version returns the world/data-version field. The core does not
// parse level.dat's DataVersion (see DESIGN.md), so this is a constant.
func (w *World) Version() string {
	return worldVersion
}

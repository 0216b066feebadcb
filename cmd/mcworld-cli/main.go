package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/OCharnyshevich/mcworld/pkg/mcworld"
	"github.com/OCharnyshevich/mcworld/pkg/world/nbt"
)

func main() {
	var (
		searchCompound string
		searchBlocks   string
		toJSON         string
	)
	flag.StringVar(&searchCompound, "search-compound", "", "find every Compound tag with this name")
	flag.StringVar(&searchBlocks, "search-blocks", "", "comma-separated resource locations to locate")
	flag.StringVar(&toJSON, "to-json", "", "write the JSON projection of the first root compound to this path")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: mcworld-cli [-search-compound name | -search-blocks a,b,c | -to-json out.json] <path>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	world, err := mcworld.Load(path, log)
	if err != nil {
		log.Error("load world", "path", path, "error", err)
		os.Exit(1)
	}

	switch {
	case searchCompound != "":
		found, compounds := world.SearchCompound(searchCompound)
		if !found {
			fmt.Println("no matches")
			return
		}
		fmt.Printf("%d match(es) for %q: %d fields each on average\n", len(compounds), searchCompound, averageLen(compounds))

	case searchBlocks != "":
		targets := splitTargets(searchBlocks)
		matches := world.SearchBlocks(targets)
		total := 0
		for loc, blocks := range matches {
			for _, b := range blocks {
				fmt.Printf("%s (%d,%d,%d)\n", loc, b.X, b.Y, b.Z)
			}
			total += len(blocks)
		}
		fmt.Fprintf(os.Stderr, "%d block(s) matched\n", total)

	case toJSON != "":
		if err := world.ToJSON(toJSON); err != nil {
			log.Error("write json", "path", toJSON, "error", err)
			os.Exit(1)
		}
		fmt.Println("wrote", toJSON)

	default:
		summary := map[string]any{
			"version":    world.Version(),
			"roots":      len(world.Roots()),
			"loadErrors": len(world.Errors()),
		}
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
	}
}

func splitTargets(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func averageLen(compounds []*nbt.Compound) int {
	if len(compounds) == 0 {
		return 0
	}
	total := 0
	for _, c := range compounds {
		total += c.Len()
	}
	return total / len(compounds)
}

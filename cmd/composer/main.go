package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/compose"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/config"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/palette"
	"github.com/jaywhisker/hdb-spatial-placement/pkg/render"
)

func main() {
	seed := flag.Int64("seed", 0, "Master seed for the composition batch")
	width := flag.Int("width", 0, "Grid width (0 = config default)")
	height := flag.Int("height", 0, "Grid height (0 = config default)")
	paletteFile := flag.String("palette", "", "Path to a JSON file containing a palette.Record array")
	configFile := flag.String("config", "", "Path to a YAML config file; only its grid_width/grid_height are applied")
	outFile := flag.String("out", "", "Path to write the JSON response (default: stdout)")
	svgDir := flag.String("svg", "", "If set, write one SVG visualisation per composition into this directory")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pal, err := loadPalette(*paletteFile)
	if err != nil {
		log.Fatalf("Failed to load palette: %v", err)
	}

	req := compose.Request{
		Seed:       *seed,
		GridWidth:  firstNonZero(*width, cfg.GridWidth),
		GridHeight: firstNonZero(*height, cfg.GridHeight),
		Palette:    pal,
	}

	resp, err := compose.RunBatch(req)
	if err != nil {
		log.Fatalf("Failed to generate compositions: %v", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode response: %v", err)
	}

	if *outFile == "" {
		os.Stdout.Write(data)
		os.Stdout.WriteString("\n")
	} else if err := os.WriteFile(*outFile, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *outFile, err)
	}

	if *svgDir != "" {
		if err := os.MkdirAll(*svgDir, 0o755); err != nil {
			log.Fatalf("Failed to create SVG directory: %v", err)
		}
		for i, comp := range resp.Data {
			path := svgPath(*svgDir, i)
			f, err := os.Create(path)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", path, err)
			}
			render.Composition(f, comp)
			f.Close()
		}
		log.Printf("Wrote %d SVG visualisations to %s", len(resp.Data), *svgDir)
	}
}

func loadPalette(path string) ([]palette.Record, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []palette.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func svgPath(dir string, index int) string {
	return filepath.Join(dir, "composition-"+strconv.Itoa(index)+".svg")
}

// Command mockup renders an editor manifest to an image file.
//
// Usage:
//
//	mockup -manifest layers.json -output mockup.jpg
//	mockup -manifest layers.json -output mockup.png -format png
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/mockup"
	"github.com/gogpu/mockup/internal/manifest"
	"github.com/gogpu/mockup/internal/preview"
)

func main() {
	var (
		manifestPath  = flag.String("manifest", "", "editor manifest (JSON); - reads stdin")
		output        = flag.String("output", "mockup.jpg", "output file")
		format        = flag.String("format", "", "output format: jpeg or png (default: from manifest, then output extension)")
		quality       = flag.Int("quality", mockup.DefaultQuality, "JPEG quality (1-100)")
		matte         = flag.String("matte", "#ffffff", "background color for JPEG output")
		ignoreOpacity = flag.Bool("ignore-opacity", false, "draw every layer fully opaque")
		timeout       = flag.Duration("timeout", 30*time.Second, "preview fetch timeout")
		verbose       = flag.Bool("v", false, "log per-layer diagnostics")
	)
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		mockup.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	in := os.Stdin
	if *manifestPath != "-" {
		f, err := os.Open(*manifestPath)
		if err != nil {
			log.Fatalf("Failed to open manifest: %v", err)
		}
		defer f.Close()
		in = f
	}

	m, err := manifest.Parse(in, 0)
	if err != nil {
		log.Fatalf("Failed to parse manifest: %v", err)
	}
	layers, err := m.Layers()
	if err != nil {
		log.Fatalf("Failed to read layers: %v", err)
	}

	matteColor, err := mockup.ParseHex(*matte)
	if err != nil {
		log.Fatalf("Invalid -matte: %v", err)
	}

	opts := []mockup.Option{
		mockup.WithFormat(outputFormat(*format, m.Format, *output)),
		mockup.WithQuality(*quality),
		mockup.WithMatte(matteColor.Color()),
		mockup.WithFetcher(preview.NewHTTPFetcher(preview.Options{Timeout: *timeout})),
	}
	if *ignoreOpacity {
		opts = append(opts, mockup.WithOpacityMode(mockup.OpacityIgnore))
	}

	start := time.Now()
	res, err := mockup.Composite(context.Background(), layers, opts...)
	if err != nil {
		if id, ok := mockup.LayerID(err); ok {
			log.Fatalf("Failed to render layer %q: %v", id, err)
		}
		log.Fatalf("Failed to render: %v", err)
	}

	if err := os.WriteFile(*output, res.Data, 0o644); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Mockup saved to %s (%dx%d %s, %d layers, %v)\n",
		*output, res.Width, res.Height, res.Format, len(layers), time.Since(start).Round(time.Millisecond))
}

// outputFormat picks the first usable of: the -format flag, the manifest
// format, the output file extension. JPEG is the fallback.
func outputFormat(flagValue, manifestValue, output string) mockup.Format {
	if flagValue != "" {
		f, err := mockup.ParseFormat(flagValue)
		if err != nil {
			log.Fatalf("Invalid -format: %v", err)
		}
		return f
	}
	if f, err := mockup.ParseFormat(manifestValue); err == nil {
		return f
	}
	if f, err := mockup.ParseFormat(strings.TrimPrefix(filepath.Ext(output), ".")); err == nil {
		return f
	}
	return mockup.FormatJPEG
}

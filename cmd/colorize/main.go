package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
	"github.com/p1sangmas/SmartColorizer/internal/config"
	"github.com/p1sangmas/SmartColorizer/internal/model"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, colorize.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("colorize", flag.ContinueOnError)
	inPath := fs.String("in", "", "input image (JPEG, PNG, BMP, TIFF, WebP)")
	outPath := fs.String("out", "", "output image (.png or .jpg)")
	configPath := fs.String("config", "", "path to YAML config file")
	modelPath := fs.String("model", "", "ONNX model path, overrides config")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		fs.Usage()
		return errors.New("missing required arguments")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	logger := config.NewLogger(cfg.Log, os.Stderr, *debug)
	opts, err := cfg.Colorize.Options()
	if err != nil {
		return err
	}

	img, err := decodeFile(*inPath)
	if err != nil {
		return err
	}

	session, err := model.NewSession(cfg.Model, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	pipeline, err := colorize.New(session, opts, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, err := pipeline.Colorize(ctx, img)
	if err != nil {
		return err
	}
	return encodeFile(*outPath, out)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func encodeFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

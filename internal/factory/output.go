package factory

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/flexgen/pkg/texgen"
)

// OutputPath joins an output file name to the output directory.
func OutputPath(dir, file string) string {
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, filepath.FromSlash(file))
}

// CheckOutputs reports whether every output file of d already exists.
func CheckOutputs(dir string, d *texgen.Descriptor) bool {
	for _, out := range d.Outputs() {
		info, err := os.Stat(OutputPath(dir, out.File))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// SaveOutputs writes every output of d as an RGBA8 PNG file, creating
// directories as needed. Missing images and write failures are collected;
// the remaining outputs are still written.
func SaveOutputs(dir string, d *texgen.Descriptor, images map[string]*image.NRGBA) ([]string, error) {
	var written []string
	var errs error
	for _, out := range d.Outputs() {
		img := lookupImage(images, out.Name)
		if img == nil {
			errs = multierr.Append(errs, fmt.Errorf("cannot find generated texture %q: %w", out.Name, texgen.ErrNotFound))
			continue
		}
		path := OutputPath(dir, out.File)
		if err := SavePNG(path, img); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cannot save texture %q: %w", out.Name, err))
			continue
		}
		written = append(written, path)
	}
	return written, errs
}

func lookupImage(images map[string]*image.NRGBA, name string) *image.NRGBA {
	if img, ok := images[name]; ok {
		return img
	}
	for k, img := range images {
		if strings.EqualFold(k, name) {
			return img
		}
	}
	return nil
}

// SavePNG encodes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}

// Background plate loading and saving
package io

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/cloak"
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadPlate reads a color image from disk and wraps it as a plate
func (il *ImageLoader) LoadPlate(filepath string) (*cloak.Plate, error) {
	il.logger.WithField("filepath", filepath).Debug("LOADER: Loading plate")

	if !il.isSupportedImageFormat(filepath) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to load image: %s", filepath)
	}

	plate, err := cloak.NewPlate(mat, 0)
	if err != nil {
		mat.Close()
		return nil, err
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("LOADER: Plate loaded successfully")

	return plate, nil
}

// SaveImage writes mat to filepath; the format follows the extension
func (il *ImageLoader) SaveImage(mat gocv.Mat, filepath string) error {
	il.logger.WithField("filepath", filepath).Debug("LOADER: Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !il.isSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	if ok := gocv.IMWrite(filepath, mat); !ok {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("LOADER: Image saved successfully")

	return nil
}

func (il *ImageLoader) isSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

// PlateSnapshot saves every captured plate to a fixed path
type PlateSnapshot struct {
	loader *ImageLoader
	path   string
}

// NewPlateSnapshot creates a plate saver writing to path
func NewPlateSnapshot(loader *ImageLoader, path string) (*PlateSnapshot, error) {
	if !loader.isSupportedImageFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
	return &PlateSnapshot{loader: loader, path: path}, nil
}

// SavePlate writes the plate image, overwriting the previous one
func (ps *PlateSnapshot) SavePlate(plate *cloak.Plate) error {
	return ps.loader.SaveImage(plate.Mat(), ps.path)
}

package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"

	"github.com/nfnt/resize"
)

// MaxLogoBytes is the largest accepted upload.
const MaxLogoBytes = 5 << 20

// MaxLogoSourceDimension bounds the width and height of an upload before it is
// decoded. A small compressed file can declare a canvas far larger than memory.
const MaxLogoSourceDimension = 8000

// DefaultLogoMaxDimension bounds the stored logo's width and height in pixels.
const DefaultLogoMaxDimension = 400

// ProcessLogo decodes an uploaded image, shrinks it to fit maxDim x maxDim and
// returns it as a data URI. PNG and JPEG uploads that already fit are kept
// byte for byte; everything else is re-encoded as PNG.
func ProcessLogo(r io.Reader, maxDim int) (string, error) {
	if maxDim <= 0 {
		maxDim = DefaultLogoMaxDimension
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxLogoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read logo: %w", err)
	}
	if len(data) > MaxLogoBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxLogoBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxLogoSourceDimension || cfg.Height > MaxLogoSourceDimension {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels per side",
			ErrInvalidImage, cfg.Width, cfg.Height, MaxLogoSourceDimension)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	needsResize := bounds.Dx() > maxDim || bounds.Dy() > maxDim
	if !needsResize && (format == "png" || format == "jpeg") {
		return dataURI("image/"+format, data), nil
	}

	out := img
	if needsResize {
		out = resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
		slog.Debug("logo resized",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", out.Bounds().Dx(), out.Bounds().Dy()))
	}

	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
			return "", fmt.Errorf("encode logo: %w", err)
		}
		return dataURI("image/jpeg", buf.Bytes()), nil
	}
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("encode logo: %w", err)
	}
	return dataURI("image/png", buf.Bytes()), nil
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

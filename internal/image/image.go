// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

// Package image prepares user-attached photos for inline embedding in chat
// messages: each image is downscaled to a bounded dimension and re-encoded
// as reduced-quality JPEG before leaving the server for the completion
// service.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxDimension bounds the longer side of a downscaled image.
	MaxDimension = 400

	jpegQuality = 70

	// downscale fan-out bound; preprocessing is independent per image.
	maxConcurrent = 4
)

// Downscale decodes a JPEG or PNG image, scales it so that neither side
// exceeds MaxDimension, and re-encodes it as JPEG at reduced quality.
// Images already within bounds are still re-encoded.
func Downscale(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image: decoding image: %w", err)
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > height && width > MaxDimension {
		height = height * MaxDimension / width
		width = MaxDimension
	} else if height > MaxDimension {
		width = width * MaxDimension / height
		height = MaxDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("image: encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DownscaleAll processes images as a bounded fan-out of independent tasks
// and joins before returning. Output order matches input order.
func DownscaleAll(ctx context.Context, images [][]byte) ([][]byte, error) {
	out := make([][]byte, len(images))
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrent)
	for i, data := range images {
		grp.Go(func() error {
			scaled, err := Downscale(data)
			if err != nil {
				return err
			}
			out[i] = scaled
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

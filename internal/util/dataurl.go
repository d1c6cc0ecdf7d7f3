// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package util

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURLBytes decodes a base64 data URL into its content type and raw
// bytes.
func DataURLBytes(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("util: invalid data URL %q", truncate(dataURL))
	}
	ct, contents, ok := strings.Cut(rest, ";")
	if !ok {
		return "", nil, fmt.Errorf("util: invalid data URL %q", truncate(dataURL))
	}
	b64, ok := strings.CutPrefix(contents, "base64,")
	if !ok {
		return "", nil, fmt.Errorf("util: only base64 data URLs supported, got %q", truncate(dataURL))
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("util: decoding base64 data URL: %w", err)
	}
	return ct, data, nil
}

// ImageBytesToURL converts JPEG bytes to a data URL.
func ImageBytesToURL(b []byte) string {
	if len(b) > 0 {
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
	}
	return ""
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}

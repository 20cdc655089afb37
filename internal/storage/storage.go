// Package storage persists uploaded certificate images and turns them into
// addressable paths. Serving the files is left to whatever fronts the
// configured directory or bucket.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrTooLarge     = errors.New("image exceeds size limit")
)

const imageDataPrefix = "data:image/"

// CertificateStore writes one certificate file and returns the path or URL it
// can be fetched from.
type CertificateStore interface {
	Save(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

type Image struct {
	ContentType string
	Data        []byte
}

// ParseImageDataURL decodes a base64 "data:image/<subtype>;base64,<payload>"
// URL. maxBytes <= 0 disables the size check.
func ParseImageDataURL(dataURL string, maxBytes int64) (*Image, error) {
	if !strings.HasPrefix(dataURL, imageDataPrefix) {
		return nil, ErrInvalidImage
	}
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil, ErrInvalidImage
	}
	// Wrapped payloads are accepted: whitespace is not part of the alphabet.
	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, ErrInvalidImage
	}

	contentType := strings.TrimPrefix(header, "data:")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "image/" {
		return nil, ErrInvalidImage
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return &Image{ContentType: strings.ToLower(contentType), Data: data}, nil
}

// CertificateFileName builds "cert_<account>_<unix millis><ext>".
func CertificateFileName(accountID uuid.UUID, at time.Time, contentType string) string {
	return fmt.Sprintf("cert_%s_%d%s", accountID, at.UnixMilli(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

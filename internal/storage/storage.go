// Package storage keeps uploaded files: resumes, profile pictures, event
// posters and opportunity images.
//
// A Store only moves bytes. Uploader sits in front of it, enforcing the size
// limit and the allowed content types per Kind (sniffed from the bytes, not
// taken from the client) and choosing the file name.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sakif/volunteer-connect/internal/apperror"
)

// Kind groups uploads by purpose. It is also the directory (or key prefix)
// the files land in.
type Kind string

const (
	KindProfilePicture   Kind = "profile-pictures"
	KindResume           Kind = "resumes"
	KindPoster           Kind = "posters"
	KindOpportunityImage Kind = "opportunity-images"
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes = 5 << 20

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type rule struct {
	prefix  string
	allowed []string
	label   string
}

var rules = map[Kind]rule{
	KindProfilePicture:   {prefix: "profile", allowed: imageTypes, label: "an image (jpeg, png, gif or webp)"},
	KindResume:           {prefix: "resume", allowed: []string{"application/pdf"}, label: "a PDF"},
	KindPoster:           {prefix: "poster", allowed: imageTypes, label: "an image (jpeg, png, gif or webp)"},
	KindOpportunityImage: {prefix: "opportunity", allowed: imageTypes, label: "an image (jpeg, png, gif or webp)"},
}

// Store is a place files can be written to and removed from. The returned
// ref is what gets saved in the database row.
type Store interface {
	Put(ctx context.Context, kind Kind, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Uploader validates uploads before handing them to a Store.
type Uploader struct {
	store    Store
	maxBytes int64
}

func NewUploader(store Store, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{store: store, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted upload.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Save reads r, checks its size and sniffed type against kind, and stores
// it as "<prefix>-<ownerID>-<random>.<ext>". Rejections are validation
// errors.
func (u *Uploader) Save(ctx context.Context, kind Kind, ownerID string, r io.Reader) (string, error) {
	rl, ok := rules[kind]
	if !ok {
		return "", fmt.Errorf("storage: unknown upload kind %q", kind)
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: reading upload: %w", err)
	}
	if len(data) == 0 {
		return "", apperror.ValidationFailed("file", "uploaded file is empty")
	}
	if int64(len(data)) > u.maxBytes {
		return "", apperror.ValidationFailed("file",
			fmt.Sprintf("file must be %d bytes or smaller", u.maxBytes))
	}

	mt := mimetype.Detect(data)
	contentType := baseType(mt.String())
	if !slices.Contains(rl.allowed, contentType) {
		return "", apperror.ValidationFailed("file", "file must be "+rl.label)
	}

	id, err := gonanoid.New(12)
	if err != nil {
		return "", fmt.Errorf("storage: generating file name: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s%s", rl.prefix, ownerID, id, mt.Extension())

	ref, err := u.store.Put(ctx, kind, name, contentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("storage: saving %s: %w", kind, err)
	}
	return ref, nil
}

// Remove deletes a previously saved file. An empty ref is a no-op.
func (u *Uploader) Remove(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return u.store.Delete(ctx, ref)
}

// baseType drops parameters: "text/plain; charset=utf-8" -> "text/plain".
func baseType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

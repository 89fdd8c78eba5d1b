package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/apperror"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
)

func newLocalUploader(t *testing.T, max int64) (*Uploader, *Local) {
	t.Helper()
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewUploader(local, max), local
}

func TestUploaderSave_Local(t *testing.T) {
	u, local := newLocalUploader(t, 1024)
	ctx := context.Background()

	ref, err := u.Save(ctx, KindResume, "user42", bytes.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/resumes/resume-user42-[A-Za-z0-9_-]{12}\.pdf$`), ref)

	onDisk := filepath.Join(local.Dir(), strings.TrimPrefix(ref, URLPrefix))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)

	require.NoError(t, u.Remove(ctx, ref))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, u.Remove(ctx, ref), "removing twice is fine")
	assert.NoError(t, u.Remove(ctx, ""), "empty ref is a no-op")
}

func TestUploaderSave_Rejects(t *testing.T) {
	u, _ := newLocalUploader(t, 64)

	tests := []struct {
		name string
		kind Kind
		data []byte
	}{
		{"image as resume", KindResume, pngBytes},
		{"pdf as profile picture", KindProfilePicture, pdfBytes},
		{"text as poster", KindPoster, []byte("just some text")},
		{"empty", KindOpportunityImage, nil},
		{"too large", KindResume, append(append([]byte{}, pdfBytes...), make([]byte, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Save(context.Background(), tt.kind, "u1", bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestUploaderSave_ImageKinds(t *testing.T) {
	u, _ := newLocalUploader(t, 0)
	assert.Equal(t, int64(DefaultMaxBytes), u.MaxBytes())

	for _, kind := range []Kind{KindProfilePicture, KindPoster, KindOpportunityImage} {
		ref, err := u.Save(context.Background(), kind, "owner", bytes.NewReader(pngBytes))
		require.NoError(t, err, kind)
		assert.True(t, strings.HasPrefix(ref, URLPrefix+string(kind)+"/"), ref)
		assert.True(t, strings.HasSuffix(ref, ".png"), ref)
	}
}

func TestLocalDelete_RejectsForeignRefs(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, local.Delete(context.Background(), "https://cdn.example.com/a.png"))
	assert.Error(t, local.Delete(context.Background(), "/uploads/"))
}

func TestLocalDelete_StaysInsideBaseDir(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	local, err := NewLocal(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	require.NoError(t, local.Delete(context.Background(), "/uploads/../secret.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err, "file outside the upload dir must survive")
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := newS3(fake, "vc-uploads", "https://cdn.example.com/")
	u := NewUploader(store, 1024)
	ctx := context.Background()

	ref, err := u.Save(ctx, KindPoster, "ngo1", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "https://cdn.example.com/posters/poster-ngo1-"), ref)

	key := strings.TrimPrefix(ref, "https://cdn.example.com/")
	assert.Equal(t, pngBytes, fake.objects[key])
	assert.Equal(t, "image/png", fake.types[key])

	require.NoError(t, u.Remove(ctx, ref))
	assert.NotContains(t, fake.objects, key)

	assert.Error(t, store.Delete(ctx, "/uploads/posters/x.png"))
}

func TestNewS3_DefaultPublicURL(t *testing.T) {
	store := newS3(&fakeS3{}, "bucket", "")
	assert.Equal(t, "https://bucket.s3.amazonaws.com", store.publicBaseURL)
}

package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"nourish/internal/domain"
)

func TestDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDisk(t.TempDir() + "/recipes")
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("\x89PNG\r\n\x1a\nrest")
	if err := store.Save(ctx, "1_a.png", "image/png", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("save: %v", err)
	}

	rc, err := store.Open(ctx, "1_a.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(got, data) {
		t.Errorf("read %q, want %q", got, data)
	}

	if err := store.Delete(ctx, "1_a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, "1_a.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("open after delete: %v", err)
	}
	if err := store.Delete(ctx, "1_a.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestDiskRejectsPaths(t *testing.T) {
	ctx := context.Background()
	store, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "..", "../x.png", "a/b.png", `a\b.png`} {
		if err := store.Save(ctx, name, "image/png", bytes.NewReader(nil), 0); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) = %v", name, err)
		}
		if _, err := store.Open(ctx, name); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Open(%q) = %v", name, err)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = b
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := &S3{client: fake, bucket: "b", prefix: "recipes/"}

	if err := store.Save(ctx, "1_a.jpg", "image/jpeg", bytes.NewReader([]byte("jpg")), 3); err != nil {
		t.Fatal(err)
	}
	if fake.types["recipes/1_a.jpg"] != "image/jpeg" {
		t.Errorf("stored keys = %v", fake.types)
	}

	rc, err := store.Open(ctx, "1_a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	_ = rc.Close()

	if err := store.Delete(ctx, "1_a.jpg"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "1_a.jpg"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete missing = %v", err)
	}
	if _, err := store.Open(ctx, "1_a.jpg"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("open missing = %v", err)
	}
}

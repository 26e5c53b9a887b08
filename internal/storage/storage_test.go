package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ---------------------------------------------------------------------------
// LocalStorage
// ---------------------------------------------------------------------------

func TestLocalStorage_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir(), "/files")

	url, err := s.Save(ctx, "exports/INV-1.pdf", strings.NewReader("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/files/exports/INV-1.pdf" {
		t.Errorf("unexpected url %q", url)
	}

	got, err := s.Load(ctx, "exports/INV-1.pdf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "%PDF" {
		t.Errorf("expected %%PDF, got %q", got)
	}

	if err := s.Delete(ctx, "exports/INV-1.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "exports/INV-1.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// deleting twice is fine
	if err := s.Delete(ctx, "exports/INV-1.pdf"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir(), "")

	for _, body := range []string{"first", "second"} {
		if _, err := s.Save(ctx, "slot.json", strings.NewReader(body), "application/json"); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := s.Load(ctx, "slot.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected second, got %q", got)
	}
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir(), "")
	for _, key := range []string{"../outside.json", "a/../../b", ""} {
		if _, err := s.Save(ctx, key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestLocalStorage_AllowsDotsInsideNames(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir(), "")
	for _, key := range []string{"exports/INV..7.pdf", "a..b/c.json", "..hidden"} {
		if _, err := s.Save(ctx, key, strings.NewReader("pdf"), ""); err != nil {
			t.Fatalf("Save %q: %v", key, err)
		}
		got, err := s.Load(ctx, key)
		if err != nil {
			t.Fatalf("Load %q: %v", key, err)
		}
		if string(got) != "pdf" {
			t.Errorf("key %q: expected pdf, got %q", key, got)
		}
	}
}

// ---------------------------------------------------------------------------
// S3Storage with a fake client
// ---------------------------------------------------------------------------

type fakeS3 struct {
	objects map[string][]byte
	headErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestS3Storage_SaveLoadWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3Storage(fake, S3Config{Bucket: "invoices", Region: "eu-west-1", Prefix: "seafreight"})

	url, err := s.Save(ctx, "slot.json", strings.NewReader(`{"items":[]}`), "application/json")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://invoices.s3.eu-west-1.amazonaws.com/seafreight/slot.json" {
		t.Errorf("unexpected url %q", url)
	}
	if _, ok := fake.objects["seafreight/slot.json"]; !ok {
		t.Fatalf("object not stored under prefix: %v", fake.objects)
	}

	got, err := s.Load(ctx, "slot.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"items":[]}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestS3Storage_LoadMissing(t *testing.T) {
	s := newS3Storage(&fakeS3{objects: map[string][]byte{}}, S3Config{Bucket: "b"})
	if _, err := s.Load(context.Background(), "slot.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Storage_Ping(t *testing.T) {
	s := newS3Storage(&fakeS3{headErr: errors.New("forbidden")}, S3Config{Bucket: "b"})
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Storage_Upload(t *testing.T) {
	putter := &fakePutter{}
	store := NewS3StorageWithClient(putter, "media", "http://localhost:9000/media/")

	out, err := store.Upload(context.Background(), UploadInput{
		Reader:      strings.NewReader("jpeg"),
		ContentType: "image/jpeg",
		Size:        4,
		Filename:    "photo.JPEG",
	})
	require.NoError(t, err)
	require.Len(t, putter.inputs, 1)

	key := aws.ToString(putter.inputs[0].Key)
	assert.True(t, strings.HasPrefix(key, "threads/"))
	assert.True(t, strings.HasSuffix(key, ".jpeg"))
	assert.Equal(t, "media", aws.ToString(putter.inputs[0].Bucket))

	assert.Equal(t, key, out.Key)
	assert.Equal(t, "http://localhost:9000/media/"+key, out.URL)
	assert.Equal(t, entity.AttachmentImage, out.Type)
	assert.Equal(t, int64(4), out.Size)
}

func TestS3Storage_UploadVideoWithoutExtension(t *testing.T) {
	store := NewS3StorageWithClient(&fakePutter{}, "media", "http://cdn")

	out, err := store.Upload(context.Background(), UploadInput{
		Reader:      strings.NewReader("mp4"),
		ContentType: "video/mp4",
		Size:        3,
		Filename:    "clip",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AttachmentVideo, out.Type)
	assert.True(t, strings.HasSuffix(out.Key, ".mp4"))
}

func TestS3Storage_RejectsUnsupportedType(t *testing.T) {
	putter := &fakePutter{}
	store := NewS3StorageWithClient(putter, "media", "http://cdn")

	_, err := store.Upload(context.Background(), UploadInput{
		Reader:      strings.NewReader("%PDF"),
		ContentType: "application/pdf",
		Filename:    "doc.pdf",
	})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Empty(t, putter.inputs)
}

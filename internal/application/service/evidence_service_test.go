package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizeRecorder struct{ sizes []int }

func (s *sizeRecorder) ObserveEvidence(size int) { s.sizes = append(s.sizes, size) }

func newEvidenceFixture() (*mockEngine, *mockBlobStore, *sizeRecorder, EvidenceService) {
	engine := &mockEngine{c: filedCase()}
	blobs := newMockBlobStore()
	sizes := &sizeRecorder{}
	svc := NewEvidenceService(engine, &mockEvidenceRepo{engine: engine}, blobs, 64, sizes, nil)
	return engine, blobs, sizes, svc
}

func TestEvidenceService_Attach(t *testing.T) {
	engine, blobs, sizes, svc := newEvidenceFixture()

	ev, err := svc.Attach(context.Background(), ann, 10, "receipt.txt", "", []byte("paid in full"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.ID)
	assert.Equal(t, "text/plain; charset=utf-8", ev.MimeType)
	assert.Equal(t, int64(12), ev.Size)
	assert.Equal(t, []byte("paid in full"), blobs.files[ev.StoragePath])
	assert.Equal(t, []int{12}, sizes.sizes)
	assert.Len(t, engine.recorded, 1)
}

func TestEvidenceService_AttachValidation(t *testing.T) {
	_, blobs, _, svc := newEvidenceFixture()
	ctx := context.Background()

	_, err := svc.Attach(ctx, ann, 10, " ", "", nil)
	require.True(t, domainerr.Is(err, domainerr.CodeValidation))
	var de *domainerr.Error
	require.True(t, errors.As(err, &de))
	assert.Len(t, de.Fields, 2)

	_, err = svc.Attach(ctx, ann, 10, "big.bin", "", make([]byte, 65))
	assert.True(t, domainerr.Is(err, domainerr.CodeValidation))
	assert.Empty(t, blobs.files)
}

func TestEvidenceService_StrangerWritesNothing(t *testing.T) {
	_, blobs, _, svc := newEvidenceFixture()
	stranger := ann
	stranger.UserID = 77

	_, err := svc.Attach(context.Background(), stranger, 10, "a.txt", "text/plain", []byte("x"))
	assert.True(t, domainerr.Is(err, domainerr.CodeNotFound))
	assert.Empty(t, blobs.files)
}

func TestEvidenceService_RejectedUploadRemovesBlob(t *testing.T) {
	engine, blobs, sizes, svc := newEvidenceFixture()
	engine.recordErr = domainerr.New(domainerr.CodeConflict, "cannot add evidence to a closed case")

	_, err := svc.Attach(context.Background(), bob, 10, "late.txt", "text/plain", []byte("too late"))
	assert.True(t, domainerr.Is(err, domainerr.CodeConflict))
	assert.Empty(t, blobs.files)
	assert.Empty(t, sizes.sizes)
}

func TestEvidenceService_BlobFailure(t *testing.T) {
	engine, blobs, _, svc := newEvidenceFixture()
	blobs.putErr = errors.New("disk full")

	_, err := svc.Attach(context.Background(), ann, 10, "a.txt", "text/plain", []byte("x"))
	assert.True(t, domainerr.Is(err, domainerr.CodeInternal))
	assert.Empty(t, engine.recorded)
}

func TestEvidenceService_ListAndOpen(t *testing.T) {
	_, _, _, svc := newEvidenceFixture()
	ctx := context.Background()

	ev, err := svc.Attach(ctx, ann, 10, "photo.txt", "text/plain", []byte("pixels"))
	require.NoError(t, err)

	list, err := svc.List(ctx, bob, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, content, err := svc.Open(ctx, bob, 10, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "photo.txt", got.FileName)
	assert.Equal(t, []byte("pixels"), content)

	_, _, err = svc.Open(ctx, bob, 10, 404)
	assert.True(t, domainerr.Is(err, domainerr.CodeNotFound))

	stranger := bob
	stranger.UserID = 77
	_, err = svc.List(ctx, stranger, 10)
	assert.True(t, domainerr.Is(err, domainerr.CodeNotFound))
}

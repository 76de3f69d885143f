package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// DefaultMaxEvidenceBytes bounds a single upload when no limit is configured
const DefaultMaxEvidenceBytes = 20 << 20

// EvidenceObserver records upload sizes
type EvidenceObserver interface {
	ObserveEvidence(size int)
}

// EvidenceService stores evidence files and records them on the case
type EvidenceService interface {
	Attach(ctx context.Context, caller entity.CallerIdentity, caseID int64, fileName, mimeType string, content []byte) (*entity.Evidence, error)
	List(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.Evidence, error)
	Open(ctx context.Context, caller entity.CallerIdentity, caseID, evidenceID int64) (*entity.Evidence, []byte, error)
}

type evidenceServiceImpl struct {
	engine   workflow.CaseEngine
	repo     port.EvidenceRepository
	blobs    port.BlobStore
	maxBytes int
	observer EvidenceObserver
	logger   Logger
}

// NewEvidenceService creates a new EvidenceService. maxBytes <= 0 uses DefaultMaxEvidenceBytes.
func NewEvidenceService(
	engine workflow.CaseEngine,
	repo port.EvidenceRepository,
	blobs port.BlobStore,
	maxBytes int,
	observer EvidenceObserver,
	logger Logger,
) EvidenceService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxEvidenceBytes
	}
	return &evidenceServiceImpl{
		engine:   engine,
		repo:     repo,
		blobs:    blobs,
		maxBytes: maxBytes,
		observer: observer,
		logger:   orNop(logger),
	}
}

// Attach writes the file to blob storage, then records it through the engine.
// The blob is removed again when the engine rejects the upload.
func (s *evidenceServiceImpl) Attach(ctx context.Context, caller entity.CallerIdentity, caseID int64, fileName, mimeType string, content []byte) (*entity.Evidence, error) {
	var fields domainerr.FieldErrors
	if strings.TrimSpace(fileName) == "" {
		fields.Add("file_name", "is required")
	}
	switch {
	case len(content) == 0:
		fields.Add("file", "is required")
	case len(content) > s.maxBytes:
		fields.Addf("file", "must be at most %d bytes", s.maxBytes)
	}
	if len(fields) > 0 {
		return nil, domainerr.Validation(fields...)
	}

	// strangers must not be able to write blobs
	if _, err := s.engine.GetCase(ctx, caller, caseID); err != nil {
		return nil, err
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}

	path, err := s.blobs.Put(ctx, caseID, fileName, content)
	if err != nil {
		s.logger.Error("Failed to store evidence", "error", err, "case_id", caseID)
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to store evidence")
	}

	evidence, err := s.engine.RecordEvidence(ctx, caller, caseID, &entity.Evidence{
		FileName:    fileName,
		MimeType:    mimeType,
		Size:        int64(len(content)),
		StoragePath: path,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, path); delErr != nil {
			s.logger.Error("Failed to remove orphaned evidence", "error", delErr, "path", path)
		}
		return nil, err
	}

	if s.observer != nil {
		s.observer.ObserveEvidence(len(content))
	}
	s.logger.Info("Evidence attached",
		"case_id", caseID,
		"evidence_id", evidence.ID,
		"uploader_id", caller.UserID,
		"size", len(content))
	return evidence, nil
}

// List returns the case's evidence to anyone who can see the case
func (s *evidenceServiceImpl) List(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.Evidence, error) {
	if _, err := s.engine.GetCase(ctx, caller, caseID); err != nil {
		return nil, err
	}

	list, err := s.repo.ListByCaseID(ctx, caseID)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to list evidence")
	}
	return list, nil
}

// Open returns one evidence record with its file content
func (s *evidenceServiceImpl) Open(ctx context.Context, caller entity.CallerIdentity, caseID, evidenceID int64) (*entity.Evidence, []byte, error) {
	list, err := s.List(ctx, caller, caseID)
	if err != nil {
		return nil, nil, err
	}

	for _, e := range list {
		if e.ID != evidenceID {
			continue
		}
		content, err := s.blobs.Read(ctx, e.StoragePath)
		if err != nil {
			s.logger.Error("Failed to read evidence", "error", err, "evidence_id", evidenceID)
			return nil, nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to read evidence")
		}
		return e, content, nil
	}
	return nil, nil, domainerr.Newf(domainerr.CodeNotFound, "evidence %d not found", evidenceID)
}

package usecase

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const indexArtifactVersion = 1

// indexArtifact wraps a serialized index with what is needed to decide
// whether it still matches the corpus it was built from.
type indexArtifact struct {
	Version     int
	Fingerprint uint64
	DocCount    int
	Payload     []byte
}

func encodeArtifact(a indexArtifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, fmt.Errorf("encode index artifact: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeArtifact(data []byte) (indexArtifact, error) {
	var a indexArtifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return indexArtifact{}, domain.WrapError(domain.ErrIndexCorrupt, "decode index artifact", err)
	}
	if a.Version != indexArtifactVersion {
		return indexArtifact{}, domain.WrapError(domain.ErrIndexCorrupt, "decode index artifact",
			fmt.Errorf("version %d, want %d", a.Version, indexArtifactVersion))
	}
	return a, nil
}

func (a indexArtifact) matches(fingerprint uint64, docCount int) error {
	if a.Fingerprint != fingerprint {
		return fmt.Errorf("corpus fingerprint changed")
	}
	if a.DocCount != docCount {
		return fmt.Errorf("document count %d, corpus has %d", a.DocCount, docCount)
	}
	return nil
}

// corpusFingerprint hashes the processed texts plus any extra identity parts
// (for example the embedding model name).
func corpusFingerprint(texts []string, extra ...string) uint64 {
	h := xxhash.New()
	for _, t := range texts {
		_, _ = h.WriteString(t)
		_, _ = h.Write([]byte{0})
	}
	for _, e := range extra {
		_, _ = h.WriteString(e)
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// loadArtifactPayload returns the stored payload for name when it exists,
// decodes cleanly and matches the current corpus. Any mismatch is logged and
// reported as a miss so the caller rebuilds.
func loadArtifactPayload(ctx context.Context, store ports.IndexStore, name string, fingerprint uint64, docCount int, logger *slog.Logger) ([]byte, bool) {
	if store == nil {
		return nil, false
	}
	exists, err := store.Exists(ctx, name)
	if err != nil {
		logger.Warn("index_artifact_check_failed", "error", err)
		return nil, false
	}
	if !exists {
		return nil, false
	}
	data, err := store.Load(ctx, name)
	if err != nil {
		logger.Warn("index_artifact_load_failed", "error", err)
		return nil, false
	}
	artifact, err := decodeArtifact(data)
	if err != nil {
		logger.Warn("index_artifact_invalid", "error", err)
		return nil, false
	}
	if err := artifact.matches(fingerprint, docCount); err != nil {
		logger.Info("index_artifact_stale", "reason", err.Error())
		return nil, false
	}
	return artifact.Payload, true
}

// saveArtifactPayload persists payload under name. Failures are logged only;
// an in-memory index is still usable without its artifact.
func saveArtifactPayload(ctx context.Context, store ports.IndexStore, name string, fingerprint uint64, docCount int, payload []byte, logger *slog.Logger) {
	if store == nil {
		return
	}
	data, err := encodeArtifact(indexArtifact{
		Version:     indexArtifactVersion,
		Fingerprint: fingerprint,
		DocCount:    docCount,
		Payload:     payload,
	})
	if err != nil {
		logger.Warn("index_artifact_encode_failed", "error", err)
		return
	}
	if err := store.Save(ctx, name, data); err != nil {
		logger.Warn("index_artifact_save_failed", "error", err)
	}
}

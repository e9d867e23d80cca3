package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// JSONSource reads test_data.json: {"residents": [ {...}, ... ]}.
type JSONSource struct {
	path   string
	logger *zap.Logger
}

func NewJSONSource(path string, logger *zap.Logger) *JSONSource {
	return &JSONSource{path: path, logger: logger}
}

func (s *JSONSource) Name() string { return "json" }

func (s *JSONSource) Fetch(_ context.Context) Result {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("test data file not found, using empty resident list", zap.String("path", s.path))
			return Empty(s.Name(), CanonicalFields)
		}
		return Failed(s.Name(), CanonicalFields, err)
	}

	var doc struct {
		Residents []Row `json:"residents"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		s.logger.Error("failed to parse test data file", zap.String("path", s.path), zap.Error(err))
		return Failed(s.Name(), CanonicalFields, fmt.Errorf("parse %s: %w", s.path, err))
	}
	return OK(s.Name(), CanonicalFields, doc.Residents)
}

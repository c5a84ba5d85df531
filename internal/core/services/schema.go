package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/core/ports/driving"
	"github.com/custodia-labs/metasync/internal/logger"
)

// Ensure SchemaService implements the interface.
var _ driving.SchemaVerifier = (*SchemaService)(nil)

// SchemaService keeps the index mapping in line with the fixed fields.
type SchemaService struct {
	index driven.SearchIndex
	log   logger.Logger
}

// NewSchemaService creates a schema service.
func NewSchemaService(index driven.SearchIndex, log logger.Logger) *SchemaService {
	if log == nil {
		log = logger.Nop()
	}
	return &SchemaService{index: index, log: log}
}

// Verify adds fixed fields the index does not define.
// Fields that exist are left alone even if their type differs.
func (s *SchemaService) Verify(ctx context.Context) error {
	current, err := s.index.Schema(ctx)
	if err != nil {
		return fmt.Errorf("get schema of %s: %w", s.index.Name(), err)
	}

	missing := domain.DefaultSchema().Missing(current)
	if len(missing) == 0 {
		s.log.Debug("Schema of %s is complete", s.index.Name())
		return nil
	}

	s.log.Info("Adding %d fields to %s: %v", len(missing), s.index.Name(), missing.Names())
	if err := s.index.PutSchema(ctx, missing); err != nil {
		return fmt.Errorf("update schema of %s: %w", s.index.Name(), err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/store"
)

var (
	ErrInvalidMetadataKind = errors.New("invalid metadata kind")
	ErrInvalidMetadataName = errors.New("invalid metadata name")
)

// MetadataService keeps editor comments for the tag vocabularies.
type MetadataService struct {
	store *store.SQLStore
}

func NewMetadataService(s *store.SQLStore) *MetadataService {
	return &MetadataService{store: s}
}

func (s *MetadataService) List(ctx context.Context, kind models.MetadataKind) ([]models.Metadata, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidMetadataKind
	}
	return s.store.ListMetadata(ctx, kind)
}

func (s *MetadataService) Get(ctx context.Context, kind models.MetadataKind, name string) (models.Metadata, error) {
	if !kind.IsValid() {
		return models.Metadata{}, ErrInvalidMetadataKind
	}
	return s.store.GetMetadata(ctx, kind, strings.TrimSpace(name))
}

func (s *MetadataService) Put(ctx context.Context, kind models.MetadataKind, name string, comment string) (models.Metadata, error) {
	if !kind.IsValid() {
		return models.Metadata{}, ErrInvalidMetadataKind
	}
	name = strings.TrimSpace(name)
	if name == "" || name == models.NoneValue {
		return models.Metadata{}, ErrInvalidMetadataName
	}
	return s.store.PutMetadata(ctx, models.Metadata{Kind: kind, Name: name, Comment: strings.TrimSpace(comment)})
}

func (s *MetadataService) Delete(ctx context.Context, kind models.MetadataKind, name string) error {
	if !kind.IsValid() {
		return ErrInvalidMetadataKind
	}
	return s.store.DeleteMetadata(ctx, kind, strings.TrimSpace(name))
}

package repository

import (
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"gorm.io/gorm"
)

// VocabularyOptions carries every controlled-vocabulary value, grouped by
// kind, for filter dropdowns.
type VocabularyOptions struct {
	Colors    []model.Term `json:"colors"`
	Materials []model.Term `json:"materials"`
	Tags      []model.Term `json:"tags"`
}

type VocabularyRepository interface {
	ListByKind(kind model.TermKind) ([]model.Term, error)
	ListOptions() (VocabularyOptions, error)
	ListCategories() ([]model.Category, error)
}

type vocabularyRepository struct {
	db *gorm.DB
}

func NewVocabularyRepository(db *gorm.DB) VocabularyRepository {
	return &vocabularyRepository{db: db}
}

func (r *vocabularyRepository) ListByKind(kind model.TermKind) ([]model.Term, error) {
	var terms []model.Term
	err := r.db.Where("kind = ?", kind).Order("name ASC").Find(&terms).Error
	if err != nil {
		logger.Error("Failed to list vocabulary terms", err, map[string]interface{}{
			"kind": kind,
		})
		return nil, err
	}
	return terms, nil
}

func (r *vocabularyRepository) ListOptions() (VocabularyOptions, error) {
	var options VocabularyOptions
	var err error

	if options.Colors, err = r.ListByKind(model.TermKindColor); err != nil {
		return options, err
	}
	if options.Materials, err = r.ListByKind(model.TermKindMaterial); err != nil {
		return options, err
	}
	if options.Tags, err = r.ListByKind(model.TermKindTag); err != nil {
		return options, err
	}
	return options, nil
}

func (r *vocabularyRepository) ListCategories() ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories", err, nil)
		return nil, err
	}
	return categories, nil
}

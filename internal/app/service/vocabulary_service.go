package service

import (
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
)

type VocabularyService interface {
	GetOptions() (repository.VocabularyOptions, error)
	GetTerms(kind model.TermKind) ([]model.Term, error)
	GetCategories() ([]model.Category, error)
}

type vocabularyService struct {
	vocabRepo repository.VocabularyRepository
}

func NewVocabularyService(vocabRepo repository.VocabularyRepository) VocabularyService {
	return &vocabularyService{vocabRepo: vocabRepo}
}

func (s *vocabularyService) GetOptions() (repository.VocabularyOptions, error) {
	return s.vocabRepo.ListOptions()
}

func (s *vocabularyService) GetTerms(kind model.TermKind) ([]model.Term, error) {
	return s.vocabRepo.ListByKind(kind)
}

func (s *vocabularyService) GetCategories() ([]model.Category, error) {
	return s.vocabRepo.ListCategories()
}

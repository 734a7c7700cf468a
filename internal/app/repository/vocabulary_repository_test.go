package repository

import (
	"testing"

	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyRepository_ListByKind(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	seedCatalogFixtures(t, testDB)
	repo := NewVocabularyRepository(testDB)

	colors, err := repo.ListByKind(model.TermKindColor)
	require.NoError(t, err)
	require.Len(t, colors, 2)
	for _, term := range colors {
		assert.Equal(t, model.TermKindColor, term.Kind)
	}

	tags, err := repo.ListByKind(model.TermKindTag)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestVocabularyRepository_ListOptions(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	seedCatalogFixtures(t, testDB)
	repo := NewVocabularyRepository(testDB)

	options, err := repo.ListOptions()
	require.NoError(t, err)
	assert.Len(t, options.Colors, 2)
	assert.Len(t, options.Materials, 1)
	assert.Len(t, options.Tags, 1)
}

func TestVocabularyRepository_ListCategories(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	seedCatalogFixtures(t, testDB)
	repo := NewVocabularyRepository(testDB)

	categories, err := repo.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

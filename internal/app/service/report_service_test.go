package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/genbyt/genbyt-backend/internal/db"
)

func TestReportService_GetCatalogStatistics(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	first, err := svc.CreateListing(ctx, validInput("Sold sofa"), 1, nil)
	require.NoError(t, err)
	_, err = svc.CreateListing(ctx, validInput("Open sofa"), 1, nil)
	require.NoError(t, err)
	_, err = svc.MarkListingSold(first.ID, 1, false, nil)
	require.NoError(t, err)

	reports := NewReportService(repository.NewListingRepository(testDB))
	stats, err := reports.GetCatalogStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalListings)
	assert.Equal(t, int64(1), stats.SoldListings)
	assert.Equal(t, 15000.0, stats.Revenue)
}

func TestReportService_ExportSoldArchiveXLSX(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Exported chair"), 1, nil)
	require.NoError(t, err)
	buyerID := uint(42)
	_, err = svc.MarkListingSold(listing.ID, 1, false, &buyerID)
	require.NoError(t, err)

	reports := NewReportService(repository.NewListingRepository(testDB))
	buf, err := reports.ExportSoldArchiveXLSX()
	require.NoError(t, err)
	require.NotNil(t, buf)

	// The workbook round-trips with a header row and one archive row.
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sold Listings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Title", rows[0][2])
	assert.Equal(t, "Exported chair", rows[1][2])
}

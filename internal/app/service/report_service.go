package service

import (
	"bytes"
	"fmt"

	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	GetCatalogStatistics() (repository.CatalogStatistics, error)
	ExportSoldArchiveXLSX() (*bytes.Buffer, error)
}

type reportService struct {
	listingRepo repository.ListingRepository
}

func NewReportService(listingRepo repository.ListingRepository) ReportService {
	return &reportService{listingRepo: listingRepo}
}

func (s *reportService) GetCatalogStatistics() (repository.CatalogStatistics, error) {
	return s.listingRepo.Statistics()
}

// ExportSoldArchiveXLSX renders the sold-item archive as an XLSX workbook
// for the admin sales report download.
func (s *reportService) ExportSoldArchiveXLSX() (*bytes.Buffer, error) {
	entries, err := s.listingRepo.ListSoldArchive()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sold Listings"
	f.SetSheetName(f.GetSheetName(0), sheetName)

	headers := []string{"Archive ID", "Listing ID", "Title", "Category ID", "Location ID", "Price", "Currency", "Buyer ID", "Sold At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for rowIdx, entry := range entries {
		row := rowIdx + 2

		values := []interface{}{
			entry.ID,
			derefUint(entry.ListingID),
			entry.Title,
			entry.CategoryID,
			entry.LocationID,
			derefFloat(entry.PriceAmount),
			derefString(entry.PriceCurrency),
			derefUint(entry.BuyerID),
			entry.SoldAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to render sold archive workbook", err, map[string]interface{}{
			"entries": len(entries),
		})
		return nil, err
	}

	logger.Info("Sold archive exported", map[string]interface{}{
		"entries": len(entries),
	})
	return buf, nil
}

func derefUint(v *uint) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

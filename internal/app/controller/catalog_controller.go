package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/service"
	"github.com/genbyt/genbyt-backend/internal/errors"
	"github.com/genbyt/genbyt-backend/internal/middleware"
)

// CatalogController serves the controlled vocabulary and admin reports.
type CatalogController struct {
	vocabularyService service.VocabularyService
	reportService     service.ReportService
}

func NewCatalogController(vocabularyService service.VocabularyService, reportService service.ReportService) *CatalogController {
	return &CatalogController{
		vocabularyService: vocabularyService,
		reportService:     reportService,
	}
}

// GetOptions returns every vocabulary value grouped by kind
// GET /api/v1/catalog/options
func (ctrl *CatalogController) GetOptions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	options, err := ctrl.vocabularyService.GetOptions()
	if err != nil {
		log.Error("Failed to fetch vocabulary options", err, nil)
		errors.InternalError(c, "Failed to fetch options")
		return
	}

	c.JSON(http.StatusOK, options)
}

// GetCategories returns all listing categories
// GET /api/v1/catalog/categories
func (ctrl *CatalogController) GetCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.vocabularyService.GetCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		errors.InternalError(c, "Failed to fetch categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetTerms returns one vocabulary kind
// GET /api/v1/catalog/terms/:kind
func (ctrl *CatalogController) GetTerms(c *gin.Context) {
	kind := model.TermKind(c.Param("kind"))
	switch kind {
	case model.TermKindColor, model.TermKindMaterial, model.TermKindTag:
	default:
		errors.BadRequest(c, errors.ValidationInvalidInput, "Unknown vocabulary kind")
		return
	}

	terms, err := ctrl.vocabularyService.GetTerms(kind)
	if err != nil {
		errors.InternalError(c, "Failed to fetch terms")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"terms": terms,
		"count": len(terms),
	})
}

// GetStatistics returns catalog-wide counts and revenue (Admin only)
// GET /api/v1/admin/statistics
func (ctrl *CatalogController) GetStatistics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.reportService.GetCatalogStatistics()
	if err != nil {
		log.Error("Failed to compute catalog statistics", err, nil)
		errors.InternalError(c, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportSoldArchive streams the sold-item archive as XLSX (Admin only)
// GET /api/v1/admin/sold-archive/export
func (ctrl *CatalogController) ExportSoldArchive(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	buf, err := ctrl.reportService.ExportSoldArchiveXLSX()
	if err != nil {
		log.Error("Failed to export sold archive", err, nil)
		errors.InternalError(c, "Failed to export sold archive")
		return
	}

	filename := fmt.Sprintf("sold-archive-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

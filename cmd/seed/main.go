package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds the controlled vocabulary (categories, locations, terms) and,
// when an XLSX path is given, bulk-imports listing fixtures from it.
//
// Usage: go run cmd/seed/main.go [listings.xlsx]
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	gdb := db.GetDB()

	if err := seedVocabulary(gdb); err != nil {
		log.Fatal("Failed to seed vocabulary:", err)
	}
	fmt.Println("Vocabulary seeded successfully")

	if len(os.Args) < 2 {
		return
	}

	filePath := os.Args[1]
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	inputs, err := readListingsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total listings to import: %d\n", len(inputs))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	listingRepo := repository.NewListingRepository(gdb)
	imported := 0
	for _, row := range inputs {
		if _, err := listingRepo.Create(row.input, row.sellerID); err != nil {
			fmt.Printf("Skipping listing %q: %v\n", row.input.Title, err)
			continue
		}
		imported++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total listings imported: %d\n", imported)
}

var seedCategories = []string{
	"Furniture", "Electronics", "Clothing", "Books", "Sports", "Toys", "Home & Garden", "Other",
}

var seedLocations = []model.Location{
	{City: "København", Zip: "1000"},
	{City: "Aarhus", Zip: "8000"},
	{City: "Odense", Zip: "5000"},
	{City: "Aalborg", Zip: "9000"},
	{City: "Esbjerg", Zip: "6700"},
}

var seedTerms = map[model.TermKind][]string{
	model.TermKindColor:    {"black", "white", "grey", "brown", "beige", "red", "blue", "green", "yellow"},
	model.TermKindMaterial: {"wood", "metal", "glass", "plastic", "leather", "fabric", "ceramic"},
	model.TermKindTag:      {"vintage", "handmade", "scandinavian", "mid-century", "industrial", "kids"},
}

func seedVocabulary(gdb *gorm.DB) error {
	for _, name := range seedCategories {
		category := model.Category{Name: name}
		if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&category).Error; err != nil {
			return err
		}
	}

	for _, location := range seedLocations {
		loc := location
		if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&loc).Error; err != nil {
			return err
		}
	}

	for kind, names := range seedTerms {
		for _, name := range names {
			term := model.Term{Kind: kind, Name: name}
			if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&term).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

type listingRow struct {
	input    repository.CreateListingInput
	sellerID uint
}

// readListingsFromXLSX parses the fixture sheet. Expected columns:
// seller_id, title, description, category_id, condition, quantity,
// price_amount, price_currency, status, location_id.
func readListingsFromXLSX(filePath string) ([]listingRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var listings []listingRow
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < 10 {
			skippedCount++
			continue
		}

		sellerID, errSeller := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 32)
		title := strings.TrimSpace(row[1])
		description := strings.TrimSpace(row[2])
		categoryID, errCategory := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 32)
		condition := model.ListingCondition(strings.TrimSpace(row[4]))
		quantityStr := strings.TrimSpace(row[5])
		priceStr := strings.TrimSpace(row[6])
		currency := strings.ToUpper(strings.TrimSpace(row[7]))
		status := model.ListingStatus(strings.TrimSpace(row[8]))
		locationID, errLocation := strconv.ParseUint(strings.TrimSpace(row[9]), 10, 32)

		if errSeller != nil || errCategory != nil || errLocation != nil || title == "" {
			skippedCount++
			continue
		}
		if !model.IsValidCondition(condition) {
			skippedCount++
			continue
		}
		if status == "" {
			status = model.StatusActive
		}

		quantity := 1
		if quantityStr != "" {
			if q, err := strconv.Atoi(quantityStr); err == nil && q >= 0 {
				quantity = q
			}
		}

		input := repository.CreateListingInput{
			Title:       title,
			Description: description,
			CategoryID:  uint(categoryID),
			Condition:   condition,
			Quantity:    quantity,
			Status:      status,
			LocationID:  uint(locationID),
		}

		// Price is both-or-neither; rows with only one half are listed
		// without a price.
		if priceStr != "" && currency != "" {
			if amount, err := strconv.ParseFloat(priceStr, 64); err == nil {
				input.PriceAmount = &amount
				input.PriceCurrency = &currency
			}
		}

		listings = append(listings, listingRow{input: input, sellerID: uint(sellerID)})
	}

	if skippedCount > 0 {
		fmt.Printf("Skipped %d invalid rows\n", skippedCount)
	}
	return listings, nil
}

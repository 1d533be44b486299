// Package importer bulk-loads catalog products from a spreadsheet through the admin API.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/app/service"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

var ErrNoRows = errors.New("no product rows found")

// Column headers, matched case-insensitively. Title, Short Description, Category and
// Price are required.
const (
	colTitle         = "title"
	colSlug          = "slug"
	colShort         = "short description"
	colLong          = "long description"
	colCategory      = "category"
	colPrice         = "price"
	colOriginalPrice = "original price"
	colProductType   = "product type"
	colLicenseType   = "license type"
	colAgeGroup      = "age group"
	colTags          = "tags"
	colImageURL      = "image url"
	colFeatured      = "featured"
)

var requiredColumns = []string{colTitle, colShort, colCategory, colPrice}

// Row is one importable product. Line is the 1-based spreadsheet row.
type Row struct {
	Line  int
	Draft service.ProductDraft
}

type Skipped struct {
	Line   int    `json:"line"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

type Sheet struct {
	Name    string
	Rows    []Row
	Skipped []Skipped
}

// ReadProducts parses the first sheet of an XLSX workbook. Categories are matched by
// slug or name; rows with unknown categories, invalid prices or a slug already seen
// earlier in the sheet are skipped.
func ReadProducts(r io.Reader, categories []model.Category) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	categoryIDs := make(map[string]string)
	for _, c := range categories {
		categoryIDs[strings.ToLower(c.Slug)] = c.ID
		categoryIDs[strings.ToLower(c.Name)] = c.ID
	}

	sheet := &Sheet{Name: name}
	seen := make(map[string]int)

	for i, cells := range rows[1:] {
		line := i + 2
		cell := func(col string) string {
			pos, ok := index[col]
			if !ok || pos >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[pos])
		}

		title := cell(colTitle)
		if title == "" && cell(colPrice) == "" {
			continue
		}
		skip := func(reason string) {
			sheet.Skipped = append(sheet.Skipped, Skipped{Line: line, Title: title, Reason: reason})
		}

		categoryID, ok := categoryIDs[strings.ToLower(cell(colCategory))]
		if !ok {
			skip(fmt.Sprintf("unknown category %q", cell(colCategory)))
			continue
		}

		draft := service.ProductDraft{
			Title:            title,
			Slug:             cell(colSlug),
			ShortDescription: cell(colShort),
			LongDescription:  cell(colLong),
			CategoryID:       categoryID,
			Price:            strings.TrimPrefix(cell(colPrice), "₹"),
			OriginalPrice:    strings.TrimPrefix(cell(colOriginalPrice), "₹"),
			ProductType:      model.ProductType(strings.ToUpper(cell(colProductType))),
			LicenseType:      model.LicenseType(strings.ToUpper(cell(colLicenseType))),
			AgeGroup:         cell(colAgeGroup),
			Tags:             cell(colTags),
			ImageURL:         cell(colImageURL),
		}
		if v := cell(colFeatured); v != "" {
			featured, err := strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				featured = strings.EqualFold(v, "yes")
			}
			draft.IsFeatured = featured
		}

		in, err := service.PrepareProduct(draft)
		if err != nil {
			skip(err.Error())
			continue
		}
		slug := in.Slug
		if first, dup := seen[slug]; dup {
			skip(fmt.Sprintf("duplicate slug %q (first on line %d)", slug, first))
			continue
		}
		seen[slug] = line

		sheet.Rows = append(sheet.Rows, Row{Line: line, Draft: draft})
	}

	if len(sheet.Rows) == 0 && len(sheet.Skipped) == 0 {
		return nil, ErrNoRows
	}
	return sheet, nil
}

type Result struct {
	Created int
	Failed  []Skipped
}

// Importer creates products through the admin service with an admin access token.
type Importer struct {
	admin       service.AdminService
	token       string
	concurrency int
}

func New(admin service.AdminService, token string) *Importer {
	return &Importer{admin: admin, token: token, concurrency: defaultConcurrency}
}

// Categories lists the store's categories for ReadProducts.
func (im *Importer) Categories(ctx context.Context) ([]model.Category, error) {
	return im.admin.ListCategories(ctx, im.token)
}

// Import creates every row. A failed row does not stop the others; only context
// cancellation does.
func (im *Importer) Import(ctx context.Context, rows []Row) (*Result, error) {
	var (
		mu     sync.Mutex
		result Result
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for _, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := im.admin.CreateProduct(ctx, im.token, row.Draft, nil, nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Product import failed", map[string]interface{}{
					"line":  row.Line,
					"title": row.Draft.Title,
					"error": err.Error(),
				})
				result.Failed = append(result.Failed, Skipped{Line: row.Line, Title: row.Draft.Title, Reason: err.Error()})
				return nil
			}
			result.Created++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &result, err
	}
	return &result, nil
}

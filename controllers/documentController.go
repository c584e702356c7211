package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"touroperator-backend/database"
	"touroperator-backend/gateway"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"
	"touroperator-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentLineInput struct {
	CatalogItemID string  `json:"catalog_item_id" validate:"required,uuid4"`
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	TaxRate       float64 `json:"tax_rate" validate:"gte=0,lte=1"`
}

type QuotationCreateDTO struct {
	DocumentNumber string              `json:"document_number"`
	ClientID       uint                `json:"client_id" validate:"required"`
	Currency       string              `json:"currency" validate:"omitempty,len=3"`
	Items          []DocumentLineInput `json:"items" validate:"required,min=1,dive"`
}

// POST /api/quotation
func CreateQuotation(c *fiber.Ctx) error {
	var in QuotationCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var client models.Client
	if err := db.First(&client, "id = ?", in.ClientID).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unknown client")
	}

	items, subtotal, taxTotal, err := buildDocumentItems(db, in.Items)
	if err != nil {
		return err
	}

	number := strings.TrimSpace(in.DocumentNumber)
	if number == "" {
		number = generateNumber("Q")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "EUR"
	}

	doc := models.TripDocument{
		DocumentNumber: number,
		Kind:           models.DocQuotation,
		ClientID:       in.ClientID,
		Items:          items,
		Subtotal:       subtotal,
		TaxTotal:       taxTotal,
		Total:          utils.Round2(subtotal + taxTotal),
		Currency:       currency,
		Draft:          true,
	}
	if err := db.Create(&doc).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create quotation (number taken?)")
	}

	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(doc.ID), 10))
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GET /api/quotations?kind=quotation|invoice
func GetDocuments(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := db.Model(&models.TripDocument{}).Preload("Items").Preload("Client")
	if kind := strings.TrimSpace(c.Query("kind")); kind != "" {
		if kind != models.DocQuotation && kind != models.DocInvoice {
			return fiber.NewError(fiber.StatusBadRequest, "unknown document kind")
		}
		q = q.Where("kind = ?", kind)
	}

	var docs []models.TripDocument
	if err := q.Limit(limit).Offset(offset).Order("created_at DESC").Find(&docs).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"documents": docs, "limit": limit, "offset": offset})
}

// GET /api/quotation/:id
func GetDocument(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var doc models.TripDocument
	if err := db.Preload("Items").Preload("Client").First(&doc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(doc)
}

type QuotationUpdateDTO struct {
	Items []DocumentLineInput `json:"items" validate:"required,min=1,dive"`
}

// PUT /api/quotation/:id - replace lines while still a draft quotation
func UpdateQuotation(c *fiber.Ctx) error {
	var in QuotationUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var doc models.TripDocument
	if err := db.Preload("Items").First(&doc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if doc.Kind != models.DocQuotation || !doc.Draft {
		return fiber.NewError(fiber.StatusConflict, "only draft quotations can be edited")
	}

	items, subtotal, taxTotal, err := buildDocumentItems(db, in.Items)
	if err != nil {
		return err
	}

	if err := db.Where("document_id = ?", doc.ID).Delete(&models.DocumentItem{}).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not replace lines")
	}
	for i := range items {
		items[i].DocumentID = doc.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not create lines")
		}
	}

	updates := map[string]any{
		"subtotal":  subtotal,
		"tax_total": taxTotal,
		"total":     utils.Round2(subtotal + taxTotal),
	}
	if err := db.Model(&models.TripDocument{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not update totals")
	}

	var out models.TripDocument
	if err := db.Preload("Items").First(&out, "id = ?", doc.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload document")
	}
	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(doc.ID), 10))
	return c.JSON(out)
}

// PUT /api/quotations/:id/convert - quotation becomes an invoice; the
// quotation state is frozen as an immutable version first.
func ConvertQuotation(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var doc models.TripDocument
	if err := db.Preload("Items").First(&doc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if doc.Kind != models.DocQuotation {
		return fiber.NewError(fiber.StatusConflict, "document is already an invoice")
	}

	if err := snapshotVersion(db, &doc); err != nil {
		return err
	}

	updates := map[string]any{"kind": models.DocInvoice, "draft": false}
	if err := db.Model(&models.TripDocument{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not convert quotation")
	}

	var out models.TripDocument
	if err := db.Preload("Items").First(&out, "id = ?", doc.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload document")
	}
	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(doc.ID), 10))
	return c.JSON(out)
}

// PUT /api/invoices/:id/publish
func PublishInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var doc models.TripDocument
	if err := db.Preload("Items").First(&doc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if doc.Kind != models.DocInvoice {
		return fiber.NewError(fiber.StatusConflict, "only invoices can be published")
	}
	if doc.Published {
		return fiber.NewError(fiber.StatusConflict, "invoice already published")
	}

	if err := snapshotVersion(db, &doc); err != nil {
		return err
	}

	now := time.Now().UTC()
	updates := map[string]any{"published": true, "published_at": &now}
	if err := db.Model(&models.TripDocument{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not publish invoice")
	}

	var out models.TripDocument
	if err := db.Preload("Items").First(&out, "id = ?", doc.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload document")
	}
	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(doc.ID), 10))
	return c.JSON(out)
}

// GET /api/quotations/:id/versions
func GetDocumentVersions(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var versions []models.DocumentVersion
	if err := db.Where("document_id = ?", c.Params("id")).Order("version_no").Find(&versions).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"versions": versions})
}

// buildDocumentItems prices the requested lines from the catalog at current
// unit prices and computes per-line and total amounts.
func buildDocumentItems(db *gorm.DB, lines []DocumentLineInput) ([]models.DocumentItem, float64, float64, error) {
	var items []models.DocumentItem
	var subtotal, taxTotal float64

	for i, line := range lines {
		var catalogItem models.CatalogItem
		if err := db.First(&catalogItem, "id = ?", line.CatalogItemID).Error; err != nil {
			return nil, 0, 0, fiber.NewError(fiber.StatusBadRequest,
				"unknown catalog item at index "+strconv.Itoa(i))
		}

		net := utils.Round2(catalogItem.UnitPrice * float64(line.Quantity))
		tax := utils.Round2(net * line.TaxRate)
		desc := strings.TrimSpace(line.Description)
		if desc == "" {
			desc = catalogItem.Name
		}

		items = append(items, models.DocumentItem{
			CatalogItemID: catalogItem.Id,
			Description:   desc,
			Quantity:      line.Quantity,
			UnitPrice:     catalogItem.UnitPrice,
			TaxRate:       line.TaxRate,
			NetPrice:      net,
			TaxAmount:     tax,
			GrossPrice:    utils.Round2(net + tax),
		})
		subtotal = utils.Round2(subtotal + net)
		taxTotal = utils.Round2(taxTotal + tax)
	}
	return items, subtotal, taxTotal, nil
}

// snapshotVersion freezes the document's current state as the next version.
func snapshotVersion(db *gorm.DB, doc *models.TripDocument) error {
	var count int64
	if err := db.Model(&models.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not count versions")
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not snapshot document")
	}
	version := models.DocumentVersion{
		DocumentID: doc.ID,
		VersionNo:  int(count) + 1,
		Kind:       doc.Kind,
		Snapshot:   blob,
	}
	if err := db.Create(&version).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not store version")
	}
	return nil
}

func generateNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

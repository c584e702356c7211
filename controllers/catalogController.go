package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"touroperator-backend/database"
	"touroperator-backend/gateway"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"
	"touroperator-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CatalogItemInput struct {
	ProviderID  uint    `json:"provider_id" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	SeasonFrom  *string `json:"season_from"` // YYYY-MM-DD
	SeasonTo    *string `json:"season_to"`
}

// POST /api/catalog - batch create priced services
func CreateCatalogItems(c *fiber.Ctx) error {
	var inputs []CatalogItemInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty catalog batch")
	}
	for i := range inputs {
		if err := middlewares.ValidateStruct(&inputs[i]); err != nil {
			return err
		}
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var created []models.CatalogItem
	for i, input := range inputs {
		item := models.CatalogItem{
			ProviderID:  input.ProviderID,
			Name:        strings.TrimSpace(input.Name),
			Description: strings.TrimSpace(input.Description),
			UnitPrice:   utils.Round2(input.UnitPrice),
			Currency:    strings.ToUpper(strings.TrimSpace(input.Currency)),
			Active:      true,
		}
		if item.Currency == "" {
			item.Currency = "EUR"
		}

		item.SeasonFrom, err = parseDatePtr(input.SeasonFrom)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid season_from at index %d", i))
		}
		item.SeasonTo, err = parseDatePtr(input.SeasonTo)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid season_to at index %d", i))
		}

		if err := db.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("could not create catalog item at index %d (provider missing?)", i))
		}
		created = append(created, item)
	}

	if len(created) > 0 {
		c.Locals(gateway.LocalResourceID, created[0].Id)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GET /api/catalog?provider_id=7
func GetCatalogItems(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 100)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := db.Model(&models.CatalogItem{})
	if pid := utils.ParseIntDefault(c.Query("provider_id"), 0); pid > 0 {
		q = q.Where("provider_id = ?", pid)
	}

	var items []models.CatalogItem
	if err := q.Limit(limit).Offset(offset).Order("name").Find(&items).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"items": items, "limit": limit, "offset": offset})
}

type CatalogItemUpdateDTO struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency" validate:"omitempty,len=3"`
}

// PUT /api/catalog/:id
func UpdateCatalogItem(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing catalog item id in path")
	}

	var in CatalogItemUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.CatalogItem
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "catalog item not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.CatalogItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update catalog item")
		}
	}

	var out models.CatalogItem
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload catalog item")
	}
	c.Locals(gateway.LocalResourceID, id)
	return c.JSON(out)
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

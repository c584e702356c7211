package controllers

import (
	"errors"
	"strconv"
	"strings"

	"touroperator-backend/database"
	"touroperator-backend/gateway"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"
	"touroperator-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProviderCreateDTO struct {
	Name        string `json:"name" validate:"required,min=1"`
	Type        string `json:"type" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Zip         string `json:"zip"`
	TaxNumber   string `json:"tax_number"`
	Notes       string `json:"notes"`
}

type ProviderUpdateDTO struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	Zip         *string `json:"zip"`
	TaxNumber   *string `json:"tax_number"`
	Notes       *string `json:"notes"`
	Active      *bool   `json:"active"`
}

// POST /api/provider
func CreateProvider(c *fiber.Ctx) error {
	var in ProviderCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	if !models.KnownProviderType(in.Type) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown provider type")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	provider := models.Provider{
		Name:        in.Name,
		Type:        in.Type,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		City:        in.City,
		Country:     in.Country,
		Zip:         in.Zip,
		TaxNumber:   in.TaxNumber,
		Notes:       in.Notes,
		Active:      true,
	}
	if err := db.Create(&provider).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create provider (name/type taken)")
	}

	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(provider.Id), 10))
	return c.Status(fiber.StatusCreated).JSON(provider)
}

// GET /api/providers?type=hotel
func GetProviders(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := db.Model(&models.Provider{})
	if t := strings.TrimSpace(c.Query("type")); t != "" {
		if !models.KnownProviderType(t) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown provider type")
		}
		q = q.Where("type = ?", t)
	}

	var providers []models.Provider
	if err := q.Limit(limit).Offset(offset).Order("name").Find(&providers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"providers": providers, "limit": limit, "offset": offset})
}

// PUT /api/provider/:id
func UpdateProvider(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing provider id in path")
	}

	var in ProviderUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.Provider
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "provider not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.Provider{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update provider")
		}
	}

	var out models.Provider
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload provider")
	}
	c.Locals(gateway.LocalResourceID, id)
	return c.JSON(out)
}

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

type ClientCreateDTO struct {
	Name         string  `json:"name" validate:"required,min=1"`
	ContactName  string  `json:"contact_name"`
	Email        string  `json:"email" validate:"required,email"`
	PhoneNumber  string  `json:"phone_number"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Country      string  `json:"country" validate:"required"`
	Zip          string  `json:"zip"`
	Language     string  `json:"language" validate:"omitempty,max=8"`
	Nationality  string  `json:"nationality"`
	AgencyMarkup float64 `json:"agency_markup" validate:"gte=0,lte=100"`
	Notes        string  `json:"notes"`
}

type ClientUpdateDTO struct {
	ContactName  *string  `json:"contact_name"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string  `json:"phone_number"`
	Address      *string  `json:"address"`
	City         *string  `json:"city"`
	Country      *string  `json:"country"`
	Zip          *string  `json:"zip"`
	Language     *string  `json:"language" validate:"omitempty,max=8"`
	Nationality  *string  `json:"nationality"`
	AgencyMarkup *float64 `json:"agency_markup" validate:"omitempty,gte=0,lte=100"`
	Notes        *string  `json:"notes"`
}

// POST /api/client
func CreateClient(c *fiber.Ctx) error {
	var in ClientCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	client := models.Client{
		Name:         in.Name,
		ContactName:  in.ContactName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		Zip:          in.Zip,
		Language:     in.Language,
		Nationality:  in.Nationality,
		AgencyMarkup: in.AgencyMarkup,
		Notes:        in.Notes,
		Active:       true,
	}
	if err := db.Create(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create client (name or email taken)")
	}

	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(client.Id), 10))
	return c.Status(fiber.StatusCreated).JSON(client)
}

// GET /api/clients
func GetClients(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	var clients []models.Client
	if err := db.Limit(limit).Offset(offset).Order("name").Find(&clients).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"clients": clients, "limit": limit, "offset": offset})
}

// GET /api/client/:id
func GetClient(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(client)
}

// PUT /api/client/:id
func UpdateClient(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing client id in path")
	}

	var in ClientUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.Client
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.Client{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update client")
		}
	}

	var out models.Client
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload client")
	}
	c.Locals(gateway.LocalResourceID, id)
	return c.JSON(out)
}

package controllers

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"touroperator-backend/database"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RegisterDTO struct {
	FirstName       string `json:"first_name" validate:"required,min=1"`
	LastName        string `json:"last_name" validate:"required,min=1"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Salutation      string `json:"salutation"`
	Title           string `json:"title"`
	PhoneNumber     string `json:"phone_number"`
	MobileNumber    string `json:"mobile_number"`
	AgencyName      string `json:"agency_name" validate:"required,min=2"`
	Address         string `json:"address" validate:"required"`
	City            string `json:"city" validate:"required"`
	Country         string `json:"country" validate:"required"`
	Zip             string `json:"zip" validate:"required"`
	Website         string `json:"website" validate:"omitempty,url"`
	IataCode        string `json:"iata_code"`
}

// Register creates the operator agency, its tenant schema, and the first
// user (admin role).
func Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	var mailExist models.User
	database.DB.Where("email = ?", in.Email).First(&mailExist)
	if mailExist.Email != "" {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	}

	tx := database.DB.Begin()

	user := models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      models.RoleAdmin,
	}
	user.SetPassword(in.Password)
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}

	contact := models.OperatorContact{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Salutation: in.Salutation,
		Title:      in.Title,
		Phone:      in.PhoneNumber,
		Mobile:     in.MobileNumber,
	}
	if err := tx.Create(&contact).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "could not create contact person")
	}

	agency := models.Agency{
		Name:      in.AgencyName,
		Address:   in.Address,
		City:      in.City,
		Country:   in.Country,
		Zip:       in.Zip,
		Website:   in.Website,
		IataCode:  in.IataCode,
		OwnerId:   user.Id,
		ContactId: contact.Id,
	}

	schemaName, err := createSchema(agency.Name)
	if err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusInternalServerError, "registration failed due to internal error")
	}
	agency.SchemaName = schemaName

	if err := tx.Create(&agency).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "could not create agency")
	}

	user.SchemaName = schemaName
	if err := tx.Updates(&user).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusBadRequest, "registration failed")
	}

	if err := database.MigrateTenantSchema(schemaName); err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusInternalServerError, "could not migrate tenant schema")
	}

	tx.Commit()

	database.DB.Preload("Owner").Preload("Contact").First(&agency)
	return c.Status(fiber.StatusCreated).JSON(agency)
}

func createSchema(operator string) (string, error) {
	safeName := strings.ToLower(strings.TrimSpace(operator))
	safeName = strings.ReplaceAll(safeName, " ", "_")
	// Validate schema name (only letters, numbers, underscores; must start with letter/underscore)
	valid := regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	if !valid.MatchString(safeName) {
		return "", fmt.Errorf("invalid schema name after sanitization: %s", safeName)
	}

	// Create schema if not exists
	if err := database.DB.Exec("CREATE SCHEMA IF NOT EXISTS " + safeName).Error; err != nil {
		return "", err
	}
	return safeName, nil
}

func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
	}

	var user models.User
	database.DB.Exec("SET search_path TO public")
	database.DB.Table("public.users").Where("email = ?", data["email"]).First(&user)

	if _, err := uuid.Parse(user.Id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid credentials")
	}
	if err := user.ComparePassword(data["password"]); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid credentials")
	}

	token, err := middlewares.GenerateJWT(user.Id, user.SchemaName, user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	if err := database.MigrateTenantSchema(user.SchemaName); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not migrate tenant schema")
	}

	return c.JSON(fiber.Map{
		"token":  token,
		"schema": user.SchemaName,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{
		"message": "success",
	})
}

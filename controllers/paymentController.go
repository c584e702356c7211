package controllers

import (
	"errors"
	"strconv"
	"time"

	"touroperator-backend/database"
	"touroperator-backend/gateway"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"
	"touroperator-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PaymentCreateDTO struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required"`
	Reference string  `json:"reference"`
	Note      string  `json:"note"`
	PaidAt    *string `json:"paid_at"` // YYYY-MM-DD, defaults to today
}

// POST /api/invoices/:id/payments
func CreatePayment(c *fiber.Ctx) error {
	var in PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var doc models.TripDocument
	if err := db.First(&doc, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if doc.Kind != models.DocInvoice {
		return fiber.NewError(fiber.StatusConflict, "payments can only be recorded on invoices")
	}

	paidAt := time.Now().UTC()
	if t, err := parseDatePtr(in.PaidAt); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid paid_at")
	} else if t != nil {
		paidAt = *t
	}

	payment := models.Payment{
		DocumentID: doc.ID,
		Amount:     utils.Round2(in.Amount),
		Method:     in.Method,
		Reference:  in.Reference,
		Note:       in.Note,
		PaidAt:     paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not record payment")
	}

	newPaid := utils.Round2(doc.PaidTotal + payment.Amount)
	if err := db.Model(&models.TripDocument{}).Where("id = ?", doc.ID).
		Update("paid_total", newPaid).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not update paid total")
	}

	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(payment.ID), 10))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment":    payment,
		"paid_total": newPaid,
	})
}

// GET /api/invoices/:id/payments
func ListPayments(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var payments []models.Payment
	if err := db.Where("document_id = ?", c.Params("id")).
		Order("paid_at").Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"payments": payments})
}

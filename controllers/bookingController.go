package controllers

import (
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
	"gorm.io/gorm"
)

type BookingCreateDTO struct {
	Reference  string  `json:"reference"`
	ClientID   uint    `json:"client_id" validate:"required"`
	DocumentID *uint   `json:"document_id"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    string  `json:"end_date" validate:"required"`
	Travelers  int     `json:"travelers" validate:"required,gt=0"`
	TotalPrice float64 `json:"total_price" validate:"gte=0"`
	Currency   string  `json:"currency" validate:"omitempty,len=3"`
}

// POST /api/booking
func CreateBooking(c *fiber.Ctx) error {
	var in BookingCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", strings.TrimSpace(in.StartDate))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid start_date")
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(in.EndDate))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid end_date")
	}
	if end.Before(start) {
		return fiber.NewError(fiber.StatusBadRequest, "end_date before start_date")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var client models.Client
	if err := db.First(&client, "id = ?", in.ClientID).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unknown client")
	}

	total := utils.Round2(in.TotalPrice)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))

	// Booking sourced from a quotation inherits its totals.
	if in.DocumentID != nil {
		var doc models.TripDocument
		if err := db.First(&doc, "id = ?", *in.DocumentID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unknown source document")
		}
		if total == 0 {
			total = doc.Total
		}
		if currency == "" {
			currency = doc.Currency
		}
	}
	if currency == "" {
		currency = "EUR"
	}

	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = generateNumber("BK")
	}

	booking := models.Booking{
		Reference:  reference,
		ClientID:   in.ClientID,
		DocumentID: in.DocumentID,
		Status:     models.BookingConfirmed,
		StartDate:  start,
		EndDate:    end,
		Travelers:  in.Travelers,
		TotalPrice: total,
		Currency:   currency,
	}
	if err := db.Create(&booking).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "could not create booking (reference taken?)")
	}

	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(booking.ID), 10))
	return c.Status(fiber.StatusCreated).JSON(booking)
}

// GET /api/bookings?status=confirmed
func GetBookings(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	q := db.Model(&models.Booking{}).Preload("Client")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := q.Limit(limit).Offset(offset).Order("start_date").Find(&bookings).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"bookings": bookings, "limit": limit, "offset": offset})
}

// GET /api/booking/:id
func GetBooking(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var booking models.Booking
	if err := db.Preload("Client").First(&booking, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(booking)
}

type BookingCancelDTO struct {
	Note string `json:"note"`
}

// PUT /api/bookings/:id/cancel - strictly budgeted and idempotent; a retry
// with the same key replays the first cancellation's response.
func CancelBooking(c *fiber.Ctx) error {
	var in BookingCancelDTO
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var booking models.Booking
	if err := db.First(&booking, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if booking.Status == models.BookingCancelled {
		return fiber.NewError(fiber.StatusConflict, "booking already cancelled")
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":       models.BookingCancelled,
		"cancelled_at": &now,
		"cancel_note":  strings.TrimSpace(in.Note),
	}
	if err := db.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not cancel booking")
	}

	var out models.Booking
	if err := db.First(&out, "id = ?", booking.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload booking")
	}
	c.Locals(gateway.LocalResourceID, strconv.FormatUint(uint64(booking.ID), 10))
	return c.JSON(out)
}

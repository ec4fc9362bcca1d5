package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/httpx"
	"github.com/sklep-tm/storefront/internal/order"
	"github.com/sklep-tm/storefront/internal/payments"
)

func getProfileHandler(repo customer.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetProfile(c.Request.Context(), httpx.UserID(c))
		if errors.Is(err, customer.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

type profileRequest struct {
	CompanyName      string  `json:"company_name"`
	NIP              string  `json:"nip"`
	REGON            *string `json:"regon"`
	KRS              *string `json:"krs"`
	ContactFirstName string  `json:"contact_first_name"`
	ContactLastName  string  `json:"contact_last_name"`
	ContactPhone     string  `json:"contact_phone"`
	ContactPosition  *string `json:"contact_position"`
	Street           string  `json:"street"`
	City             string  `json:"city"`
	PostalCode       string  `json:"postal_code"`
	Country          string  `json:"country"`
}

func upsertProfileHandler(repo customer.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.CompanyName == "" || req.NIP == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company_name and nip are required"})
			return
		}
		cust := &customer.Customer{
			CompanyName:      req.CompanyName,
			NIP:              req.NIP,
			REGON:            req.REGON,
			KRS:              req.KRS,
			ContactFirstName: req.ContactFirstName,
			ContactLastName:  req.ContactLastName,
			ContactPhone:     req.ContactPhone,
			ContactPosition:  req.ContactPosition,
		}
		addr := &customer.Address{
			Street:     req.Street,
			City:       req.City,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		}
		userID, email := httpx.UserID(c), httpx.Email(c)
		if err := repo.UpsertProfile(c.Request.Context(), userID, email, cust, addr); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
			return
		}
		p, err := repo.GetProfile(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orders, err := repo.ListByUser(c.Request.Context(), httpx.UserID(c), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
			return
		}
		if orders == nil {
			orders = []order.Full{}
		}
		c.JSON(http.StatusOK, gin.H{"items": orders})
	}
}

func listStripeCustomersHandler(p payments.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
		customers, err := p.ListCustomers(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list customers"})
			return
		}
		if customers == nil {
			customers = []payments.Customer{}
		}
		c.JSON(http.StatusOK, gin.H{"items": customers})
	}
}

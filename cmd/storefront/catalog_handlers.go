package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/catalog"
)

func listServicesHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		services, err := repo.ListActive(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load services"})
			return
		}
		if services == nil {
			services = []catalog.Service{}
		}
		c.JSON(http.StatusOK, gin.H{"items": services})
	}
}

func getServiceHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		c.JSON(http.StatusOK, svc)
	}
}

func serviceFromRequest(req catalog.UpsertServiceRequest) (*catalog.Service, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, errors.New("invalid price")
	}
	vat := decimal.Zero
	if req.VATRate != "" {
		if vat, err = decimal.NewFromString(req.VATRate); err != nil {
			return nil, errors.New("invalid vat_rate")
		}
	}
	if req.Name == "" || req.Slug == "" {
		return nil, errors.New("name and slug are required")
	}
	return &catalog.Service{
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		FullDescription:  req.FullDescription,
		Category:         req.Category,
		Price:            price,
		Currency:         req.Currency,
		VATRate:          vat,
		PriceIncludesVAT: req.PriceIncludesVAT,
		IsActive:         req.IsActive,
		Deliverables:     req.Deliverables,
		Overview:         req.Overview,
		OverviewPoints:   req.OverviewPoints,
		Steps:            req.Steps,
		Requirements:     req.Requirements,
		UDCode:           req.UDCode,
		StartTime:        req.StartTime,
		FinishTime:       req.FinishTime,
		ImageURL:         req.ImageURL,
	}, nil
}

func createServiceHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpsertServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		svc, err := serviceFromRequest(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := repo.Create(c.Request.Context(), svc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create service"})
			return
		}
		c.JSON(http.StatusCreated, svc)
	}
}

func updateServiceHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpsertServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		svc, err := serviceFromRequest(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		svc.ID = c.Param("id")
		if err := repo.Update(c.Request.Context(), svc); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update service"})
			return
		}
		c.JSON(http.StatusOK, svc)
	}
}

func deleteServiceHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete service"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createUDCodeHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		code, err := repo.CreateUDCode(c.Request.Context(), body.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ud code"})
			return
		}
		c.JSON(http.StatusCreated, code)
	}
}

func listUDCodesHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		codes, err := repo.ListUDCodes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ud codes"})
			return
		}
		if codes == nil {
			codes = []catalog.UDCode{}
		}
		c.JSON(http.StatusOK, gin.H{"items": codes})
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/catalog"
	"github.com/sklep-tm/storefront/internal/checkout"
	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/httpx"
	"github.com/sklep-tm/storefront/internal/notify"
	"github.com/sklep-tm/storefront/internal/order"
	"github.com/sklep-tm/storefront/internal/payments"
)

type routerDeps struct {
	jwtSecret []byte
	catalog   catalog.Repository
	customers customer.Repository
	orders    order.Repository
	carts     *cart.Manager
	pipeline  *checkout.Pipeline
	provider  payments.Provider
	forwarder *notify.Forwarder
	emails    *notify.EmailService
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "storefront"})
	})

	api := r.Group("/api", httpx.OptionalAuth(d.jwtSecret))
	{
		api.GET("/services", listServicesHandler(d.catalog))
		api.GET("/services/:id", getServiceHandler(d.catalog))

		api.GET("/cart", getCartHandler(d.carts))
		api.POST("/cart/items", addCartItemHandler(d.carts, d.catalog))
		api.PATCH("/cart/items/:serviceId", updateCartItemHandler(d.carts))
		api.DELETE("/cart/items/:serviceId", removeCartItemHandler(d.carts))
		api.DELETE("/cart", clearCartHandler(d.carts))
		api.POST("/cart/logout", cartLogoutHandler(d.carts))

		api.POST("/automation/notify", automationNotifyHandler(d.forwarder))
		api.POST("/purchase-email", purchaseEmailHandler(d.emails))
		api.POST("/checkout/verify", verifyPaymentHandler(d.pipeline, d.carts))
	}

	authed := api.Group("", httpx.RequireAuth(d.jwtSecret))
	{
		authed.POST("/cart/merge", mergeCartHandler(d.carts))
		authed.POST("/cart/sync", syncCartHandler(d.carts))
		authed.POST("/checkout/session", createCheckoutSessionHandler(d.pipeline, d.carts))
		authed.GET("/me/profile", getProfileHandler(d.customers))
		authed.PUT("/me/profile", upsertProfileHandler(d.customers))
		authed.GET("/me/orders", listOrdersHandler(d.orders))
	}

	admin := authed.Group("/admin", httpx.RequireAdmin(d.customers))
	{
		admin.POST("/services", createServiceHandler(d.catalog))
		admin.PUT("/services/:id", updateServiceHandler(d.catalog))
		admin.DELETE("/services/:id", deleteServiceHandler(d.catalog))
		admin.POST("/ud-codes", createUDCodeHandler(d.catalog))
		admin.GET("/ud-codes", listUDCodesHandler(d.catalog))
		admin.GET("/stripe-customers", listStripeCustomersHandler(d.provider))
	}

	return r
}

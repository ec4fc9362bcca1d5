package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/checkout"
	"github.com/sklep-tm/storefront/internal/httpx"
	"github.com/sklep-tm/storefront/internal/notify"
)

// createCheckoutSessionHandler materializes the order from the caller's
// server-held cart (never a client-supplied total) and returns the
// provider redirect URL. On any failure the cart stays intact for a
// retry.
func createCheckoutSessionHandler(pipeline *checkout.Pipeline, carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form checkout.BillingForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		s := sessionStore(c, carts)
		sub, err := pipeline.Submit(c.Request.Context(), checkout.Identity{
			UserID: httpx.UserID(c),
			Email:  httpx.Email(c),
		}, form, s.Items())
		if err != nil {
			if errors.Is(err, checkout.ErrEmptyCart) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
				return
			}
			log.Printf("[checkout] submit failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_id":    sub.OrderID,
			"session_url": sub.RedirectURL,
		})
	}
}

// verifyPaymentHandler resolves the session after the provider
// redirected back. Only a paid session clears the cart; any other
// outcome leaves it intact and reports failure so the client routes
// back to checkout.
func verifyPaymentHandler(pipeline *checkout.Pipeline, carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SessionID string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}

		full, err := pipeline.Verify(c.Request.Context(), body.SessionID)
		if err != nil {
			if errors.Is(err, checkout.ErrPaymentIncomplete) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Payment not completed"})
				return
			}
			log.Printf("[checkout] verification failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Verification failed"})
			return
		}

		s := sessionStore(c, carts)
		s.Clear(full.UserID)

		c.JSON(http.StatusOK, gin.H{"success": true, "order": full})
	}
}

// automationNotifyHandler forwards the paid order to the downstream
// automation webhook exactly once per order id.
func automationNotifyHandler(forwarder *notify.Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Order map[string]any `json:"order"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Order == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order data"})
			return
		}
		orderID, _ := body.Order["id"].(string)
		if orderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing order_id"})
			return
		}

		err := forwarder.Forward(c.Request.Context(), orderID, body.Order)
		if errors.Is(err, notify.ErrAlreadyLaunched) {
			c.JSON(http.StatusOK, gin.H{"message": "Already launched"})
			return
		}
		if err != nil {
			log.Printf("[notify] forward failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func purchaseEmailHandler(emails *notify.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SessionID     string `json:"session_id"`
			CustomerEmail string `json:"customer_email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}
		if err := emails.SendPurchaseConfirmation(c.Request.Context(), body.SessionID, body.CustomerEmail); err != nil {
			log.Printf("[notify] purchase email failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send email"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

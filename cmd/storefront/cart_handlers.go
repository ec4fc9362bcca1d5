package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/catalog"
	"github.com/sklep-tm/storefront/internal/httpx"
)

const cartCookie = "cart_session"

// sessionStore resolves the caller's browsing-context store, minting
// the session cookie on first contact.
func sessionStore(c *gin.Context, carts *cart.Manager) *cart.Store {
	sid, err := c.Cookie(cartCookie)
	if err != nil || uuid.Validate(sid) != nil {
		sid = uuid.NewString()
		c.SetCookie(cartCookie, sid, 30*24*3600, "/", "", false, true)
	}
	return carts.Get(sid)
}

type cartResponse struct {
	Items    []cart.Item `json:"items"`
	Totals   cart.Totals `json:"totals"`
	Hydrated bool        `json:"hydrated"`
}

func cartJSON(s *cart.Store) cartResponse {
	items := s.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartResponse{Items: items, Totals: s.Totals(), Hydrated: s.Hydrated()}
}

func getCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, cartJSON(sessionStore(c, carts)))
	}
}

func addCartItemHandler(carts *cart.Manager, services catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ServiceID string `json:"service_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.ServiceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "service_id is required"})
			return
		}
		svc, err := services.GetByID(c.Request.Context(), body.ServiceID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		if !svc.IsActive {
			c.JSON(http.StatusConflict, gin.H{"error": "service is not available"})
			return
		}
		s := sessionStore(c, carts)
		s.AddItem(cart.ServiceRef{ID: svc.ID, Name: svc.Name, Price: svc.Price}, httpx.UserID(c))
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

func updateCartItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceID := c.Param("serviceId")
		var body struct {
			Quantity *int    `json:"quantity"`
			Note     *string `json:"note"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if body.Quantity == nil && body.Note == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity or note required"})
			return
		}
		s := sessionStore(c, carts)
		uid := httpx.UserID(c)
		if body.Quantity != nil {
			s.UpdateQuantity(serviceID, *body.Quantity, uid)
		}
		if body.Note != nil {
			s.UpdateNote(serviceID, *body.Note, uid)
		}
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

func removeCartItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionStore(c, carts)
		s.RemoveItem(c.Param("serviceId"), httpx.UserID(c))
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

func clearCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionStore(c, carts)
		s.Clear(httpx.UserID(c))
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

// mergeCartHandler runs on login: guest lines are upserted into the
// user's mirror (guest quantity wins per service), then the local cart
// is replaced by the server copy.
func mergeCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionStore(c, carts)
		if err := s.MergeGuestCartThenSync(c.Request.Context(), httpx.UserID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to merge cart"})
			return
		}
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

func syncCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionStore(c, carts)
		if err := s.SyncFromServer(c.Request.Context(), httpx.UserID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync cart"})
			return
		}
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

// cartLogoutHandler wipes the local cart and its storage entry without
// touching the user's server rows.
func cartLogoutHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionStore(c, carts)
		s.ClearOnLogout()
		c.JSON(http.StatusOK, cartJSON(s))
	}
}

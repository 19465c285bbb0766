package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/service" // Client use cases
)

// ListClientsHandler returns the caller's clients
func ListClientsHandler(clients *service.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		list, err := clients.List(c.Request.Context(), sc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetClientHandler returns one client with its latest invoices
func GetClientHandler(clients *service.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		client, err := clients.Get(c.Request.Context(), sc, id)
		if err != nil {
			respondError(c, err) // Not found or owned by another tenant
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

// CreateClientHandler adds a client for the caller
func CreateClientHandler(clients *service.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		var req clientRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		client, err := clients.Create(c.Request.Context(), sc, clientInput(req))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

// UpdateClientHandler replaces a client's contact details
func UpdateClientHandler(clients *service.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req clientRequest
		if !bindJSON(c, &req) {
			return
		}
		client, err := clients.Update(c.Request.Context(), sc, id, clientInput(req))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

// DeleteClientHandler removes a client and its invoices
func DeleteClientHandler(clients *service.Clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := clients.Delete(c.Request.Context(), sc, id); err != nil {
			respondError(c, err) // Clients with paid invoices are kept
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clientInput(r clientRequest) service.ClientInput {
	return service.ClientInput{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// User is the authenticated identity attached to a request.
type User struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Auth is mocked for the demo: one hard-coded user, one valid token.
// Real OAuth is out of scope.
const (
	cookieName = "access_token"
	validToken = "mock_valid_token"
)

var mockUser = User{
	UserID: "gaucho_001",
	Name:   "Nathan Ngo",
	Email:  "nathan_ngo@ucsb.edu",
}

// currentUser resolves the request's user, or nil when unauthenticated.
func currentUser(c *fiber.Ctx) *User {
	if c.Cookies(cookieName) == validToken {
		u := mockUser
		return &u
	}
	return nil
}

// requireAuth rejects unauthenticated requests.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}
	return c.Next()
}

// handleLogin starts the (mock) auth flow.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	return c.Redirect("/auth/callback")
}

// handleCallback issues the mock token and returns to the dashboard.
func (s *Server) handleCallback(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:    cookieName,
		Value:   validToken,
		Expires: time.Now().Add(24 * time.Hour),
	})
	return c.Redirect("/")
}

// handleLogout clears the token.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:    cookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
	})
	return c.Redirect("/")
}

// handleMe reports the current authentication state.
func (s *Server) handleMe(c *fiber.Ctx) error {
	if user := currentUser(c); user != nil {
		return c.JSON(fiber.Map{"authenticated": true, "user": user})
	}
	return c.JSON(fiber.Map{"authenticated": false})
}

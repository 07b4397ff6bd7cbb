package handlers

import (
	"fmt"
	"net/http"
	"time"

	"campustour-web/internal/common"
	"campustour-web/internal/email"

	"github.com/labstack/echo/v4"
	"github.com/lindell/go-burner-email-providers/burner"
)

// DepartmentTile is a home-page grid entry. The display names differ from
// the backend's short codes for a few departments (MECH vs ME, CIVIL vs CE),
// so each tile carries the code used in /rooms?department=.
type DepartmentTile struct {
	Name        string
	Code        string
	Icon        string
	Description string
}

var departmentTiles = []DepartmentTile{
	{Name: "CSE", Code: "CSE", Icon: "💻", Description: "Explore Computer Science classrooms, labs, and facilities"},
	{Name: "ECE", Code: "ECE", Icon: "📡", Description: "Experience Electronics and Communication labs & research areas"},
	{Name: "MECH", Code: "ME", Icon: "⚙️", Description: "Tour Mechanical workshops, projects, and classrooms"},
	{Name: "CIVIL", Code: "CE", Icon: "🏗️", Description: "Walk through Civil Engineering labs and structural projects"},
	{Name: "CHEM", Code: "CHEM", Icon: "🧪", Description: "Discover Chemical Engineering labs and experiments"},
	{Name: "MET", Code: "MET", Icon: "🔩", Description: "Explore Metallurgy research and lab facilities"},
	{Name: "EEE", Code: "EEE", Icon: "⚡", Description: "Experience Electrical Engineering labs and classrooms"},
	{Name: "CC", Code: "CC", Icon: "🖥️", Description: "Visit the Computer Center and advanced IT labs"},
}

var featureHighlights = []string{
	"Immersive 360° VR Tours",
	"Cutting-Edge Lab Facilities",
	"Expert Faculty and Research",
	"Innovative Projects & Workshops",
	"State-of-the-Art Classrooms",
	"Collaborative Student Environment",
	"Industry-Ready Skill Development",
}

// contactsPerDay limits contact-form submissions per client address, just to
// avoid abuse of the email service.
const contactsPerDay = 20

// PageHandler serves the public pages and the departments listing.
type PageHandler struct {
	common.ServerState
}

func NewPageHandler(state common.ServerState) *PageHandler {
	return &PageHandler{ServerState: state}
}

// HomePage renders the landing page. The feature highlight rotation runs in
// the template and is torn down with the page.
func (h *PageHandler) HomePage(c echo.Context) error {
	data := map[string]interface{}{
		"User":        common.CurrentUser(c),
		"Departments": departmentTiles,
		"Features":    featureHighlights,
	}
	return c.Render(http.StatusOK, "home.html", data)
}

func (h *PageHandler) AboutPage(c echo.Context) error {
	return c.Render(http.StatusOK, "about.html", map[string]interface{}{
		"User": common.CurrentUser(c),
	})
}

func (h *PageHandler) ContactPage(c echo.Context) error {
	return c.Render(http.StatusOK, "contact.html", map[string]interface{}{
		"User":  common.CurrentUser(c),
		"Flash": common.PopFlash(c),
	})
}

type ContactRequest struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Message string `form:"message" validate:"required"`
}

// SubmitContact validates and forwards a contact-form submission.
func (h *PageHandler) SubmitContact(c echo.Context) error {
	req := new(ContactRequest)
	if err := c.Bind(req); err != nil {
		common.SetFlash(c, "error", "Invalid form submission")
		return c.Redirect(http.StatusFound, "/contact")
	}
	if err := c.Validate(req); err != nil {
		common.SetFlash(c, "error", "Please fill in your name, a valid email and a message")
		return c.Redirect(http.StatusFound, "/contact")
	}

	if burner.IsBurnerEmail(req.Email) {
		common.SetFlash(c, "error", "Temporary email addresses are not allowed")
		return c.Redirect(http.StatusFound, "/contact")
	}

	if !h.allowContact(c) {
		common.SetFlash(c, "error", "Too many messages today, please try again tomorrow")
		return c.Redirect(http.StatusFound, "/contact")
	}

	if h.EmailClient != nil {
		h.EmailClient.SendContactEmail(email.ContactMessage{
			Name:    req.Name,
			ReplyTo: req.Email,
			Body:    req.Message,
		})
	}

	common.SetFlash(c, "success", "Message sent successfully!")
	return c.Redirect(http.StatusFound, "/contact")
}

// allowContact applies a per-address daily limit when Redis is configured.
// Without Redis the limit is skipped, matching the optional-Redis setup.
func (h *PageHandler) allowContact(c echo.Context) bool {
	if h.Redis == nil {
		return true
	}

	key := fmt.Sprintf("contact:%s:%s", c.RealIP(), time.Now().Format("2006-01-02"))
	count, err := h.Redis.Incr(c.Request().Context(), key).Result()
	if err != nil {
		c.Logger().Warnf("Contact rate limit check failed: %v", err)
		return true
	}
	if count == 1 {
		h.Redis.Expire(c.Request().Context(), key, 24*time.Hour)
	}
	return count <= contactsPerDay
}

// DepartmentsPage lists the backend's departments with links into the
// catalog.
func (h *PageHandler) DepartmentsPage(c echo.Context) error {
	data := map[string]interface{}{
		"User": common.CurrentUser(c),
	}

	departments, err := h.Backend.Departments(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to fetch departments: %v", err)
		data["Error"] = "Failed to load departments"
		return c.Render(http.StatusOK, "departments.html", data)
	}

	data["Departments"] = departments
	return c.Render(http.StatusOK, "departments.html", data)
}

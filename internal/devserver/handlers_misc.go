package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickserve/quickserve-go/internal/models"
)

// handleReverseGeocode turns coordinates into a deterministic address. The
// hosted backend asks a real geocoder; locally the grid cell is enough for
// the request form to fill itself in.
func (s *Server) handleReverseGeocode(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		detail(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		detail(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	c.JSON(http.StatusOK, models.ReverseLocation{
		Address: fmt.Sprintf("Near %.4f, %.4f", lat, lng),
		City:    "Mumbai",
		State:   "Maharashtra",
		Country: "India",
	})
}

// serviceKeywords drives the local image "analysis". The hosted backend
// sends the photo to a vision model; here the filename is all the signal
// there is.
var serviceKeywords = []struct {
	keyword     string
	serviceType string
}{
	{"pipe", "plumbing"},
	{"leak", "plumbing"},
	{"tap", "plumbing"},
	{"wire", "electrical"},
	{"switch", "electrical"},
	{"socket", "electrical"},
	{"fan", "electrical"},
	{"paint", "painting"},
	{"wall", "painting"},
	{"wood", "carpentry"},
	{"door", "carpentry"},
	{"furniture", "carpentry"},
	{"fridge", "appliance_repair"},
	{"clean", "cleaning"},
}

func (s *Server) handleAnalyzeImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		detail(c, http.StatusBadRequest, "image file is required")
		return
	}

	content, err := readFormFile(header)
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read image")
		return
	}
	if !isAllowedDocument(content) {
		detail(c, http.StatusBadRequest, "image must be a photo")
		return
	}

	serviceType := "cleaning"
	name := strings.ToLower(header.Filename)
	for _, entry := range serviceKeywords {
		if strings.Contains(name, entry.keyword) {
			serviceType = entry.serviceType
			break
		}
	}

	c.JSON(http.StatusOK, models.ImageAnalysis{
		ServiceType: serviceType,
		Title:       "Fix needed: " + strings.ReplaceAll(serviceType, "_", " "),
		Description: "Issue spotted from the uploaded photo. A professional visit is recommended.",
	})
}

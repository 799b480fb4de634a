package importexport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(db).RegisterRoutes(r.Group("/api"))
	return r
}

func seedData(t *testing.T, db *gorm.DB) {
	cat := models.Tag{Name: "前端开发", Color: "#007AFF", IsCategory: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	sub := models.Tag{Name: "React", Color: cat.Color, ParentID: &cat.ID}
	db.Create(&sub)

	link := models.Link{
		URL:         "https://example.com/react",
		Title:       "React 指南",
		Description: "入门介绍",
		Domain:      "example.com",
		SubmittedBy: "bot",
		IsProcessed: true,
	}
	db.Create(&link)
	db.Model(&link).Association("Tags").Append(&cat, &sub)
}

func exportFile(t *testing.T, router *gin.Engine) ExportFile {
	req, _ := http.NewRequest("GET", "/api/export", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "limestar-export.json") {
		t.Errorf("Expected attachment disposition, got %q", cd)
	}

	var file ExportFile
	json.Unmarshal(resp.Body.Bytes(), &file)
	return file
}

func TestExport(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedData(t, db)

	file := exportFile(t, router)

	if file.Version != 1 {
		t.Errorf("Expected version 1, got %d", file.Version)
	}
	if len(file.Tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(file.Tags))
	}
	// Categories sort first and sub-tags carry their parent by name
	if !file.Tags[0].IsCategory || file.Tags[0].Name != "前端开发" {
		t.Errorf("Expected category first, got %+v", file.Tags[0])
	}
	if file.Tags[1].Parent != "前端开发" {
		t.Errorf("Expected sub-tag parent by name, got %q", file.Tags[1].Parent)
	}

	if len(file.Links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(file.Links))
	}
	if len(file.Links[0].Tags) != 2 {
		t.Errorf("Expected 2 tag names on link, got %v", file.Links[0].Tags)
	}
}

func TestImportRoundTrip(t *testing.T) {
	srcDB := setupTestDB(t)
	srcRouter := setupTestRouter(srcDB)
	seedData(t, srcDB)
	file := exportFile(t, srcRouter)

	dstDB := setupTestDB(t)
	dstRouter := setupTestRouter(dstDB)

	body, _ := json.Marshal(file)
	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	dstRouter.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.LinksImported != 1 || result.TagsImported != 2 {
		t.Errorf("Expected 1 link and 2 tags imported, got %+v", result)
	}

	var link models.Link
	if err := dstDB.Preload("Tags").Where("url = ?", "https://example.com/react").First(&link).Error; err != nil {
		t.Fatalf("Imported link not found: %v", err)
	}
	if len(link.Tags) != 2 {
		t.Errorf("Expected 2 tags restored, got %d", len(link.Tags))
	}

	// Hierarchy is rebuilt, not flattened
	var sub models.Tag
	if err := dstDB.Where("name = ?", "React").First(&sub).Error; err != nil {
		t.Fatalf("Imported sub-tag not found: %v", err)
	}
	if sub.ParentID == nil {
		t.Error("Expected sub-tag to keep its parent")
	}
}

func TestImportIdempotent(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedData(t, db)
	file := exportFile(t, router)

	// Importing into the same database skips everything that already exists
	body, _ := json.Marshal(file)
	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)

	if result.LinksImported != 0 || result.LinksSkipped != 1 || result.TagsImported != 0 {
		t.Errorf("Expected everything skipped, got %+v", result)
	}

	var tagCount int64
	db.Model(&models.Tag{}).Count(&tagCount)
	if tagCount != 2 {
		t.Errorf("Expected no duplicate tags, got %d", tagCount)
	}
}

func TestImportInvalidBody(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("POST", "/api/import", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

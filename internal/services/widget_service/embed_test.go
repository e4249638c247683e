package services

import (
	"strings"
	"testing"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testBaseURL = "https://widgets.storyslip.io"

func baseWidget() models.WidgetConfig {
	return models.WidgetConfig{
		ID:        uuid.MustParse("0d1fb4a2-9c64-4f58-a6a6-4242c58e2f10"),
		WebsiteID: uuid.MustParse("3f7c1f60-62e4-4f05-bd37-cf2e9a3d8c21"),
		Name:      "Homepage feed",
		Type:      models.WidgetTypeContentList,
		Layout:    models.LayoutGrid,
		Theme:     models.ThemeModern,
		Settings: models.WidgetSettings{
			PostsPerPage:   10,
			ShowPagination: true,
		},
	}
}

func TestGenerateEmbedCode_Deterministic(t *testing.T) {
	w := baseWidget()

	assert.Equal(t, GenerateEmbedCode(w, testBaseURL), GenerateEmbedCode(w, testBaseURL))
	assert.Equal(t, GeneratePreviewURL(w, testBaseURL), GeneratePreviewURL(w, testBaseURL))
}

func TestGenerateEmbedCode_ContainsContract(t *testing.T) {
	w := baseWidget()
	code := GenerateEmbedCode(w, testBaseURL)

	assert.Contains(t, code, `<div id="storyslip-widget-`+w.ID.String()+`"></div>`)
	assert.Contains(t, code, "data-storyslip-widget")
	assert.Contains(t, code, `data-widget-id="`+w.ID.String()+`"`)
	assert.Contains(t, code, `data-website-id="`+w.WebsiteID.String()+`"`)
	assert.Contains(t, code, `data-type="content_list"`)
	assert.True(t, strings.Contains(code, testBaseURL+"/widget.js"))
}

func TestGenerateEmbedCode_ChangesWithPresentationFields(t *testing.T) {
	base := baseWidget()
	baseCode := GenerateEmbedCode(base, testBaseURL)

	mutations := map[string]func(*models.WidgetConfig){
		"type":     func(w *models.WidgetConfig) { w.Type = models.WidgetTypeBlogHub },
		"layout":   func(w *models.WidgetConfig) { w.Layout = models.LayoutMasonry },
		"theme":    func(w *models.WidgetConfig) { w.Theme = models.ThemeDark },
		"settings": func(w *models.WidgetConfig) { w.Settings.PostsPerPage = 25 },
		"styling":  func(w *models.WidgetConfig) { w.Styling.AccentColor = "#ff5722" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			w := baseWidget()
			mutate(&w)
			assert.NotEqual(t, baseCode, GenerateEmbedCode(w, testBaseURL))
		})
	}
}

func TestGenerateEmbedCode_UnrelatedFieldsDoNotChangeIt(t *testing.T) {
	base := baseWidget()
	baseCode := GenerateEmbedCode(base, testBaseURL)

	w := baseWidget()
	w.Name = "Renamed feed"
	w.Filters.FeaturedOnly = true
	w.APIKey = "ss_other"

	assert.Equal(t, baseCode, GenerateEmbedCode(w, testBaseURL))
}

func TestGenerateAPIKey(t *testing.T) {
	k1 := generateAPIKey()
	k2 := generateAPIKey()

	assert.True(t, strings.HasPrefix(k1, "ss_"))
	assert.NotEqual(t, k1, k2)
}

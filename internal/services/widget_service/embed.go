package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
)

// embedFingerprint covers exactly the fields whose change requires a new
// embed snippet. JSON field order is fixed by the struct, so the hash is
// stable for equal configurations.
type embedFingerprint struct {
	Type     models.WidgetType     `json:"type"`
	Layout   models.WidgetLayout   `json:"layout"`
	Theme    models.WidgetTheme    `json:"theme"`
	Settings models.WidgetSettings `json:"settings"`
	Styling  models.WidgetStyling  `json:"styling"`
}

func configHash(w models.WidgetConfig) string {
	raw, err := json.Marshal(embedFingerprint{
		Type:     w.Type,
		Layout:   w.Layout,
		Theme:    w.Theme,
		Settings: w.Settings,
		Styling:  w.Styling,
	})
	if err != nil {
		// все поля сериализуемы, сюда не попадаем
		return ""
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// GenerateEmbedCode builds the snippet tenants paste into their pages:
// a container div plus the runtime loader script carrying declarative
// data-attributes. Deterministic for a given configuration.
func GenerateEmbedCode(w models.WidgetConfig, baseURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div id="storyslip-widget-%s"></div>`, w.ID)
	b.WriteString("\n")
	fmt.Fprintf(&b,
		`<script async src="%s/widget.js?v=%s" data-storyslip-widget data-widget-id="%s" data-website-id="%s" data-type="%s" data-layout="%s" data-theme="%s"></script>`,
		strings.TrimRight(baseURL, "/"),
		configHash(w),
		w.ID,
		w.WebsiteID,
		w.Type,
		w.Layout,
		w.Theme,
	)

	return b.String()
}

func GeneratePreviewURL(w models.WidgetConfig, baseURL string) string {
	return fmt.Sprintf("%s/preview/%s?type=%s&layout=%s&theme=%s&v=%s",
		strings.TrimRight(baseURL, "/"), w.ID, w.Type, w.Layout, w.Theme, configHash(w))
}

func generateAPIKey() string {
	return "ss_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

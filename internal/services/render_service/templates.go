package services

import (
	"fmt"
	"html/template"

	"storyslip/internal/domain/models"
)

// Each widget type owns a template; the layout only varies the class list.
// Interpolated text goes through html/template's contextual escaping, so
// user-authored titles and names can never inject markup. Excerpts are the
// one exception: they arrive as sanitized HTML (see renderer.go) and are
// injected as template.HTML.

type itemView struct {
	Title       string
	URL         string
	ImageURL    string
	AuthorName  string
	Date        string
	Excerpt     template.HTML
	Categories  []string
	ShowExcerpt bool
	ShowImage   bool
	ShowAuthor  bool
	ShowDate    bool
	NewTab      bool
}

type paginationView struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

type categoryGroup struct {
	Name  string
	Items []itemView
}

type templateData struct {
	WidgetClass string
	WidgetID    string
	Items       []itemView
	Groups      []categoryGroup
	Categories  []string
	SearchQuery string
	ShowSearch  bool
	Pagination  *paginationView
	PoweredBy   bool
	Hero        *itemView
}

const itemPartial = `{{define "item"}}<article class="storyslip-item">
{{- if and .ShowImage .ImageURL}}<div class="storyslip-item-image"><img src="{{.ImageURL}}" alt="{{.Title}}" loading="lazy"></div>{{end -}}
<h3 class="storyslip-item-title"><a href="{{.URL}}"{{if .NewTab}} target="_blank" rel="noopener"{{end}}>{{.Title}}</a></h3>
{{- if .ShowExcerpt}}<div class="storyslip-item-excerpt">{{.Excerpt}}</div>{{end -}}
<div class="storyslip-item-meta">{{if .ShowAuthor}}<span class="storyslip-item-author">{{.AuthorName}}</span>{{end}}{{if .ShowDate}}<time class="storyslip-item-date">{{.Date}}</time>{{end}}</div>
</article>{{end}}`

const searchPartial = `{{define "search"}}{{if .ShowSearch}}<form class="storyslip-search" data-storyslip-search><input type="search" name="q" placeholder="Search…" value="{{.SearchQuery}}"><button type="submit">Search</button></form>{{end}}{{end}}`

const paginationPartial = `{{define "pagination"}}{{with .Pagination}}<nav class="storyslip-pagination" data-storyslip-pagination>
<button class="storyslip-page-prev"{{if not .HasPrev}} disabled{{end}} data-page="{{.Page}}">&larr;</button>
<span class="storyslip-page-info">{{.Page}} / {{.TotalPages}}</span>
<button class="storyslip-page-next"{{if not .HasNext}} disabled{{end}} data-page="{{.Page}}">&rarr;</button>
</nav>{{end}}{{end}}`

const poweredByPartial = `{{define "powered"}}{{if .PoweredBy}}<div class="storyslip-powered"><a href="https://storyslip.io" rel="nofollow">Powered by StorySlip</a></div>{{end}}{{end}}`

const contentListTemplate = `<div class="{{.WidgetClass}}" data-widget-id="{{.WidgetID}}">
{{template "search" .}}
<div class="storyslip-items">{{range .Items}}{{template "item" .}}{{end}}</div>
{{template "pagination" .}}
{{template "powered" .}}
</div>`

const featuredPostsTemplate = `<div class="{{.WidgetClass}}" data-widget-id="{{.WidgetID}}">
<div class="storyslip-items storyslip-featured">{{range .Items}}{{template "item" .}}{{end}}</div>
{{template "powered" .}}
</div>`

const blogHubTemplate = `<div class="{{.WidgetClass}}" data-widget-id="{{.WidgetID}}">
{{with .Hero}}<section class="storyslip-hero">{{template "item" .}}</section>{{end}}
{{template "search" .}}
{{if .Categories}}<nav class="storyslip-category-nav">{{range .Categories}}<span class="storyslip-category">{{.}}</span>{{end}}</nav>{{end}}
<div class="storyslip-hub-body">
<div class="storyslip-items">{{range .Items}}{{template "item" .}}{{end}}</div>
<aside class="storyslip-sidebar">{{range .Categories}}<div class="storyslip-sidebar-category">{{.}}</div>{{end}}</aside>
</div>
{{template "pagination" .}}
{{template "powered" .}}
</div>`

const categoryGridTemplate = `<div class="{{.WidgetClass}}" data-widget-id="{{.WidgetID}}">
<div class="storyslip-category-grid">{{range .Groups}}<section class="storyslip-category-cell">
<h2 class="storyslip-category-title">{{.Name}}</h2>
<div class="storyslip-items">{{range .Items}}{{template "item" .}}{{end}}</div>
</section>{{end}}</div>
{{template "powered" .}}
</div>`

const searchWidgetTemplate = `<div class="{{.WidgetClass}}" data-widget-id="{{.WidgetID}}">
{{template "search" .}}
<div class="storyslip-items storyslip-search-results">{{range .Items}}{{template "item" .}}{{end}}</div>
{{template "pagination" .}}
{{template "powered" .}}
</div>`

var widgetTemplates map[models.WidgetType]*template.Template

func init() {
	widgetTemplates = make(map[models.WidgetType]*template.Template)

	bodies := map[models.WidgetType]string{
		models.WidgetTypeContentList:   contentListTemplate,
		models.WidgetTypeFeaturedPosts: featuredPostsTemplate,
		models.WidgetTypeBlogHub:       blogHubTemplate,
		models.WidgetTypeCategoryGrid:  categoryGridTemplate,
		models.WidgetTypeSearchWidget:  searchWidgetTemplate,
	}

	for widgetType, body := range bodies {
		tmpl := template.Must(template.New(string(widgetType)).Parse(body))
		template.Must(tmpl.Parse(itemPartial))
		template.Must(tmpl.Parse(searchPartial))
		template.Must(tmpl.Parse(paginationPartial))
		template.Must(tmpl.Parse(poweredByPartial))
		widgetTemplates[widgetType] = tmpl
	}
}

func templateFor(widgetType models.WidgetType) (*template.Template, error) {
	tmpl, ok := widgetTemplates[widgetType]
	if !ok {
		return nil, fmt.Errorf("no template for widget type '%s'", widgetType)
	}
	return tmpl, nil
}

func widgetClass(w models.WidgetConfig) string {
	return fmt.Sprintf("storyslip-widget storyslip-widget--%s storyslip-widget--theme-%s storyslip-widget--layout-%s",
		w.Type, w.Theme, w.Layout)
}

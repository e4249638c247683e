package services

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"storyslip/internal/domain/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Renderer turns (configuration, content page) into the HTML/CSS/JS
// payload. Side-effect free; persistence and caching live in the service
// above it.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type pageInfo struct {
	Page       int
	TotalPages int
	TotalItems int
	Search     string
}

func (r *Renderer) Render(w models.WidgetConfig, items []models.ContentItem, info pageInfo) (*models.RenderedWidget, error) {
	tmpl, err := templateFor(w.Type)
	if err != nil {
		return nil, err
	}

	data := templateData{
		WidgetClass: widgetClass(w),
		WidgetID:    w.ID.String(),
		SearchQuery: info.Search,
		ShowSearch:  w.Settings.ShowSearch || w.Type == models.WidgetTypeSearchWidget,
		PoweredBy:   w.Settings.PoweredBy,
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, r.itemView(w, item))
	}

	switch w.Type {
	case models.WidgetTypeBlogHub:
		if len(views) > 0 {
			data.Hero = &views[0]
			views = views[1:]
		}
		data.Items = views
		data.Categories = collectCategories(items)
	case models.WidgetTypeCategoryGrid:
		data.Groups = groupByCategory(views, items)
	default:
		data.Items = views
	}

	if w.Settings.ShowPagination && info.TotalPages > 1 {
		data.Pagination = &paginationView{
			Page:       info.Page,
			TotalPages: info.TotalPages,
			HasPrev:    info.Page > 1,
			HasNext:    info.Page < info.TotalPages,
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template '%s': %w", w.Type, err)
	}

	payload := &models.RenderedWidget{
		HTML:       buf.String(),
		CSS:        GenerateCSS(w),
		JS:         generateJS(w),
		Page:       info.Page,
		TotalPages: info.TotalPages,
		TotalItems: info.TotalItems,
	}

	if w.Type == models.WidgetTypeBlogHub && data.Hero != nil {
		payload.Meta = &models.RenderMeta{
			Title:       data.Hero.Title,
			Description: strings.TrimSpace(stripTags(string(data.Hero.Excerpt))),
		}
	}

	return payload, nil
}

func (r *Renderer) itemView(w models.WidgetConfig, item models.ContentItem) itemView {
	view := itemView{
		Title:       item.Title,
		URL:         item.URL,
		ImageURL:    item.ImageURL,
		AuthorName:  item.AuthorName,
		Categories:  item.CategoryNames,
		ShowExcerpt: w.Settings.ShowExcerpt,
		ShowImage:   w.Settings.ShowImage,
		ShowAuthor:  w.Settings.ShowAuthor,
		ShowDate:    w.Settings.ShowDate,
		NewTab:      w.Settings.OpenLinksInNewTab,
	}

	if item.PublishedAt != nil {
		view.Date = item.PublishedAt.Format("Jan 2, 2006")
	}

	if w.Settings.ShowExcerpt && item.Excerpt != "" {
		view.Excerpt = r.renderExcerpt(item.Excerpt)
	}

	return view
}

// renderExcerpt converts the markdown excerpt and strips anything the UGC
// policy disallows. The sanitizer runs after the markdown conversion so
// raw HTML embedded in markdown cannot survive either.
func (r *Renderer) renderExcerpt(excerpt string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(excerpt), &buf); err != nil {
		// деградируем до чистого текста, не роняя отрисовку
		return template.HTML(template.HTMLEscapeString(excerpt))
	}

	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes()))
}

func generateJS(w models.WidgetConfig) string {
	needsJS := w.Settings.ShowSearch || w.Settings.InfiniteScroll ||
		w.Settings.ShowPagination || w.Type == models.WidgetTypeSearchWidget
	if !needsJS {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(function(){var w=document.querySelector('[data-widget-id=%q]');if(!w)return;", w.ID.String())
	if w.Settings.ShowPagination {
		b.WriteString("w.querySelectorAll('[data-storyslip-pagination] button').forEach(function(btn){btn.addEventListener('click',function(){w.dispatchEvent(new CustomEvent('storyslip:page',{detail:{dir:btn.className.indexOf('next')>-1?1:-1}}))})});")
	}
	if w.Settings.ShowSearch || w.Type == models.WidgetTypeSearchWidget {
		b.WriteString("var f=w.querySelector('[data-storyslip-search]');if(f){f.addEventListener('submit',function(e){e.preventDefault();w.dispatchEvent(new CustomEvent('storyslip:search',{detail:{q:f.q.value}}))})}")
	}
	if w.Settings.InfiniteScroll {
		b.WriteString("w.setAttribute('data-infinite-scroll','1');")
	}
	b.WriteString("})();")

	return b.String()
}

func collectCategories(items []models.ContentItem) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, item := range items {
		for _, name := range item.CategoryNames {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			categories = append(categories, name)
		}
	}
	sort.Strings(categories)
	return categories
}

func groupByCategory(views []itemView, items []models.ContentItem) []categoryGroup {
	byName := make(map[string][]itemView)
	for i, item := range items {
		names := item.CategoryNames
		if len(names) == 0 {
			names = []string{"Uncategorized"}
		}
		for _, name := range names {
			byName[name] = append(byName[name], views[i])
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]categoryGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, categoryGroup{Name: name, Items: byName[name]})
	}
	return groups
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

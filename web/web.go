// Package web provides the embedded web UI for browsing translations and
// batch runs.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLimit bounds the lists shown on the dashboard.
const recentLimit = 10

// Handler serves the web UI pages.
type Handler struct {
	engine  *runtime.Engine
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. The engine must have a store.
func New(engine *runtime.Engine) *Handler {
	return &Handler{
		engine: engine,
		store:  engine.Store(),
		funcMap: template.FuncMap{
			"shortName":  shortName,
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"duration":   duration,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parse templates fresh each time for the page-specific template
	// This avoids the Go template issue where define blocks conflict across pages
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Post("/ui/translate", h.translate)
	app.Get("/ui/translations", h.translationList)
	app.Get("/ui/translations/:id", h.translationDetail)
	app.Get("/ui/batches/:id", h.batchDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Stats        store.Stats
	Recent       []*store.Translation
	Batches      []*store.Batch
	Expression   string
	FormError    string
	MaxDepth     int
	MaxLineChars int
	Operators    []expr.OperatorInfo
}

type translationListContent struct {
	Translations []*store.Translation
}

type translationDetailContent struct {
	Translation *store.Translation
}

type batchDetailContent struct {
	Batch *store.Batch
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	return h.render(c, "dashboard.html", "dashboard", h.dashboardData("", ""))
}

func (h *Handler) dashboardData(expression, formError string) dashboardContent {
	return dashboardContent{
		Stats:        h.store.Stats(),
		Recent:       newestFirst(h.store.ListTranslations(), recentLimit),
		Batches:      newestFirst(h.store.ListBatches(), recentLimit),
		Expression:   expression,
		FormError:    formError,
		MaxDepth:     h.engine.Translator().MaxDepth(),
		MaxLineChars: expr.MaxExpressionLength,
		Operators:    operators(),
	}
}

func operators() []expr.OperatorInfo {
	ops := expr.Operators()
	infos := make([]expr.OperatorInfo, len(ops))
	for i, op := range ops {
		infos[i] = expr.Info(op)
	}
	return infos
}

func (h *Handler) translate(c *fiber.Ctx) error {
	input := c.FormValue("expression")
	if err := expr.CheckLine(input); err != nil {
		return h.render(c.Status(400), "dashboard.html", "dashboard", h.dashboardData(input, err.Error()))
	}

	tr := h.engine.Translate(input, runtime.SourceUI)
	return c.Redirect("/ui/translations/" + tr.ID())
}

func (h *Handler) translationList(c *fiber.Ctx) error {
	return h.render(c, "translation_list.html", "translations", translationListContent{
		Translations: newestFirst(h.store.ListTranslations(), 0),
	})
}

func (h *Handler) translationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	tr, err := h.store.GetTranslation("translations/" + id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Translation '%s' not found", id),
		})
	}

	return h.render(c, "translation_detail.html", "translations", translationDetailContent{
		Translation: tr,
	})
}

func (h *Handler) batchDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	b, err := h.store.GetBatch("operations/" + id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Batch '%s' not found", id),
		})
	}

	return h.render(c, "batch_detail.html", "dashboard", batchDetailContent{
		Batch: b,
	})
}

// newestFirst returns items in reverse creation order, at most limit of
// them when limit is positive.
func newestFirst[T any](items []T, limit int) []T {
	n := len(items)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, items[i])
	}
	return out
}

// --- Template Helpers ---

func shortName(fullName string) string {
	parts := strings.Split(fullName, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return fullName
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func duration(start, end time.Time) string {
	if end.IsZero() {
		d := time.Since(start)
		return fmt.Sprintf("%s (running)", formatDuration(d))
	}
	return formatDuration(end.Sub(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

// stateClass maps translation and batch states to CSS classes. Both state
// types spell success as SUCCEEDED.
func stateClass(state interface{}) string {
	switch fmt.Sprint(state) {
	case string(store.BatchRunning):
		return "state-active"
	case string(store.BatchSucceeded):
		return "state-succeeded"
	case string(store.TranslationMalformed), string(store.BatchFailed):
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state interface{}) template.HTML {
	switch fmt.Sprint(state) {
	case string(store.BatchRunning):
		return "&#9654;"
	case string(store.BatchSucceeded):
		return "&#10003;"
	case string(store.TranslationMalformed), string(store.BatchFailed):
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

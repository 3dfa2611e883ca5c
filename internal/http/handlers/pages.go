package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"cloudtts/internal/config"
	"cloudtts/web"
)

// PagesHandler 渲染内嵌的页面模板
type PagesHandler struct {
	templates *template.Template
	basePath  string
}

// NewPagesHandler 解析内嵌模板
func NewPagesHandler(cfg *config.Config) (*PagesHandler, error) {
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PagesHandler{
		templates: tmpl,
		basePath:  cfg.Server.BasePath,
	}, nil
}

// HandleIndex 渲染首页
func (h *PagesHandler) HandleIndex(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, "index.html", gin.H{
		"BasePath": h.basePath,
	}); err != nil {
		_ = c.Error(err)
	}
}

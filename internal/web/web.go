// Package web は埋め込みHTMLテンプレートの読み込みと描画を提供する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hitoshi/hbnb-web/internal/view"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// ページテンプレート名
const (
	PageIndex     = "index"
	PagePlace     = "place"
	PageAddReview = "add_review"
	PageLogin     = "login"
	PageConfirm   = "confirm"
	PageNotFound  = "not_found"
)

// FragmentListingGrid は物件一覧の部分テンプレート名。価格フィルターの部分更新で使う。
const FragmentListingGrid = "listing_grid"

var pages = []string{PageIndex, PagePlace, PageAddReview, PageLogin, PageConfirm, PageNotFound}

// Templates はページごとに解析済みのテンプレートを保持する。
// 各ページはlayoutとpartialsを共有し、"content"ブロックのみを定義する。
type Templates struct {
	pages map[string]*template.Template
}

// New は埋め込みテンプレートをすべて解析する。解析に失敗した場合はエラーを返す。
func New() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).ParseFS(templatesFS,
			"templates/layout.tmpl",
			"templates/partials.tmpl",
			"templates/"+name+".tmpl",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render はページをlayoutに埋め込んで描画する。
// 描画結果はバッファに書き出してから出力するため、失敗時に途中までのHTMLは出力されない。
func (t *Templates) Render(w io.Writer, page string, doc view.Document) error {
	return t.execute(w, page, "layout", doc)
}

// RenderFragment はページに含まれる部分テンプレートのみを描画する。
func (t *Templates) RenderFragment(w io.Writer, page, fragment string, data any) error {
	return t.execute(w, page, fragment, data)
}

func (t *Templates) execute(w io.Writer, page, name string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page template: %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s/%s: %w", page, name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

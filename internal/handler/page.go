// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/hbnb-web/internal/middleware"
	"github.com/hitoshi/hbnb-web/internal/model"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
)

// TemplateRenderer はHTMLテンプレートの描画インターフェース。web.Templatesが満たす。
type TemplateRenderer interface {
	Render(w io.Writer, page string, doc view.Document) error
	RenderFragment(w io.Writer, page, fragment string, data any) error
}

const flashCookieName = "hbnb_flash"

// pageWriter はページ共通状態の組み立てと描画を行う。
type pageWriter struct {
	templates    TemplateRenderer
	logger       *slog.Logger
	cookieSecure bool
}

// render は共通状態を付与してページを描画する。
// 描画に失敗した場合は500を返し、途中までのHTMLは出力しない。
func (p pageWriter) render(w http.ResponseWriter, r *http.Request, status int, page, title string, body any) {
	doc := view.Document{Page: p.newPage(w, r, title), Body: body}

	var buf bytes.Buffer
	if err := p.templates.Render(&buf, page, doc); err != nil {
		p.logger.Error("ページの描画に失敗しました",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderFragment は部分テンプレートのみを描画する。
func (p pageWriter) renderFragment(w http.ResponseWriter, r *http.Request, status int, page, fragment string, data any) {
	var buf bytes.Buffer
	if err := p.templates.RenderFragment(&buf, page, fragment, data); err != nil {
		p.logger.Error("部分テンプレートの描画に失敗しました",
			slog.String("fragment", fragment),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// newPage はセッション・CSRFトークン・フラッシュメッセージから共通状態を組み立てる。
func (p pageWriter) newPage(w http.ResponseWriter, r *http.Request, title string) view.Page {
	sess := session.FromContext(r.Context())
	userID, _ := sess.CurrentUserID()
	return view.Page{
		Title:         title,
		Authenticated: sess.IsAuthenticated(),
		IsAdmin:       sess.IsAdmin(),
		UserID:        userID,
		CSRFToken:     middleware.CSRFTokenFromContext(r.Context()),
		Flash:         p.popFlash(w, r),
		RequestID:     middleware.RequestIDFromContext(r.Context()),
	}
}

// redirectWithFlash は次の画面に表示するメッセージを設定してリダイレクトする。
func (p pageWriter) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   p.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// popFlash はフラッシュメッセージを読み取り、Cookieを削除する。
func (p pageWriter) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// statusForError はエラーの分類からページのステータスコードを決める。
func statusForError(err error) int {
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindGuard:
		switch apiErr.Code {
		case model.ErrCodeOwnPlace:
			return http.StatusForbidden
		case model.ErrCodeNotLoggedIn:
			return http.StatusUnauthorized
		case model.ErrCodePlaceNotFound:
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	case model.KindNetwork:
		return http.StatusBadGateway
	case model.KindApplication:
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// isNotConfirmed は確認なしで破壊的操作が送信されたかどうかを返す。
func isNotConfirmed(err error) bool {
	return errors.Is(err, model.ErrNotConfirmed)
}

// Package session はBearerトークンのCookie保存と、
// 署名検証を行わないクレームの読み取りを提供する。
//
// ここで得られる管理者フラグやユーザーIDはUI表示の判定にのみ使用する。
// 認可の最終判断は常にバックエンドが行う。
package session

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/hbnb-web/internal/model"
)

// segmentDecoder はbase64urlセグメントのデコーダー。
// パディングの有無どちらも受け付ける。
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims はドット区切り3セグメントのトークンから中央セグメントを
// base64urlとしてデコードし、JSONオブジェクトとして解釈する。
// セグメント不足・base64不正・JSON不正・オブジェクト以外の場合はfalseを返す。
// パニックは起こさない。
func DecodeClaims(token string) (model.Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 3 || parts[1] == "" {
		return nil, false
	}

	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}

	obj, ok := decoded.(map[string]any)
	if !ok || obj == nil {
		return nil, false
	}
	return model.Claims(obj), true
}

// isAdminClaim はis_adminクレームが真偽値のtrueである場合のみtrueを返す。
// "true"や1などの真値とみなせる値は受け付けない。
func isAdminClaim(claims model.Claims) bool {
	v, ok := claims["is_admin"].(bool)
	return ok && v
}

// userIDClaim はsubクレーム、なければidentityクレームを返す。
func userIDClaim(claims model.Claims) (string, bool) {
	for _, key := range []string{"sub", "identity"} {
		if s, ok := claims[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

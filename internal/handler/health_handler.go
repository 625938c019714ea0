package handler

import (
	"encoding/json"
	"net/http"
)

// Health はプロセスの稼働状態を返す。バックエンドの疎通は確認しない。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

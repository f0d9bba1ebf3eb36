package handlers

import (
	"net/http"
	"strings"
)

type Flash struct {
	Kind string // "ok" or "error"
	Text string
}

var okText = map[string]string{
	"saved":       "저장 완료!",
	"provisioned": "월 데이터가 생성되었습니다.",
	"refreshed":   "새로고침 완료.",
	"moved":       "저장 완료! 구역 변경 사항이 반영되었습니다.",
}

var errText = map[string]string{
	"stale":     "다른 사용자가 먼저 수정했습니다. 다시 불러온 뒤 저장하세요.",
	"save":      "저장 실패. 입력한 내용은 그대로 남아 있으니 다시 시도하세요.",
	"provision": "월 생성 실패.",
	"nodata":    "데이터가 없습니다.",
}

// MakeFlash builds a Flash from ?ok= / ?err= query params, falling back to
// handler-provided strings. Unknown codes pass through as literal text.
func MakeFlash(r *http.Request, errStr, msgStr string) *Flash {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("err")); raw != "" {
		if t, ok := errText[strings.ToLower(raw)]; ok {
			return &Flash{Kind: "error", Text: t}
		}
		return &Flash{Kind: "error", Text: raw}
	}
	if raw := strings.TrimSpace(q.Get("ok")); raw != "" {
		if t, ok := okText[strings.ToLower(raw)]; ok {
			return &Flash{Kind: "ok", Text: t}
		}
		return &Flash{Kind: "ok", Text: raw}
	}
	if errStr != "" {
		return &Flash{Kind: "error", Text: errStr}
	}
	if msgStr != "" {
		return &Flash{Kind: "ok", Text: msgStr}
	}
	return nil
}

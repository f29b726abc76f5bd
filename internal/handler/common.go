package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// writeJSON 写出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Msg("写出响应失败")
	}
}

// writeError 按错误码映射 HTTP 状态写出错误响应
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Code:    string(errors.GetCode(err)),
		Message: err.Error(),
	}
	if appErr, ok := err.(*errors.AppError); ok {
		resp.Fields = appErr.Fields
	}
	writeJSON(w, errors.GetHTTPStatus(err), resp)
}

// parseIDParam 解析查询参数中的 id
func parseIDParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return uuid.Nil, errors.InvalidInput("id", "不能为空")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.InvalidInput("id", "必须是合法的 UUID")
	}
	return id, nil
}

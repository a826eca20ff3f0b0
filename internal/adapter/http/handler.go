package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes   = 64 << 10
	healthMessage  = "Project comparison API is running"
	internalErrMsg = "Internal server error"
)

// Comparer 对比服务
type Comparer interface {
	Compare(ctx context.Context, req domain.CompareRequest) (*domain.ComparisonResult, error)
}

// Handler /compare-projects 的 HTTP 入口
type Handler struct {
	comparer Comparer
}

// NewHandler 创建 HTTP 处理器
func NewHandler(comparer Comparer) *Handler {
	return &Handler{comparer: comparer}
}

// NewRouter 注册路由和中间件
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Post("/compare-projects", h.CompareProjects)
	r.Get("/compare-projects", h.Health)
	return r
}

// CompareProjects POST /compare-projects
func (h *Handler) CompareProjects(w http.ResponseWriter, r *http.Request) {
	var req domain.CompareRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.comparer.Compare(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health GET /compare-projects
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": healthMessage})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Errorf("写入 JSON 响应失败: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError 按错误码映射状态码；500 不暴露内部错误
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch common.CodeOf(err) {
	case common.ErrCodeInvalidInput:
		writeError(w, http.StatusBadRequest, common.MessageOf(err))
	case common.ErrCodeNotFound:
		writeError(w, http.StatusNotFound, common.MessageOf(err))
	default:
		logrus.WithField("request_id", middleware.GetReqID(r.Context())).Errorf("❌ 对比请求失败: %v", err)
		writeError(w, http.StatusInternalServerError, internalErrMsg)
	}
}

// accessLog 用 logrus 记录访问日志
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logrus.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Info("🌐 请求完成")
		}()
		next.ServeHTTP(ww, r)
	})
}

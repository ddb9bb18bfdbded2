package llm

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"

	apperrors "article-forge-api/pkg/errors"
)

// eino-ext 底层客户端只在错误文本中携带状态码
var statusCodePattern = regexp.MustCompile(`status code:? (\d{3})`)

var (
	transientMarkers = []string{
		"rate limit", "rate_limit", "overloaded", "timeout", "timed out",
		"connection reset", "connection refused", "temporarily unavailable", "unexpected eof",
	}
	permanentMarkers = []string{
		"content_filter", "content policy", "content management policy", "safety system",
		"model_not_found", "does not exist", "invalid_api_key", "unauthorized",
	}
)

// classify 把提供商错误归为可重试（Transient）或不可重试（Permanent）
func classify(spec ModelSpec, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeProviderTransient, "model "+spec.ID+" call timed out")
	}

	if status := statusCodeOf(err); status != 0 {
		if retryableStatus(status) {
			return apperrors.Wrap(err, apperrors.CodeProviderTransient, "model "+spec.ID+" returned HTTP "+strconv.Itoa(status))
		}
		return apperrors.Wrap(err, apperrors.CodeProviderPermanent, "model "+spec.ID+" rejected request with HTTP "+strconv.Itoa(status))
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return apperrors.Wrap(err, apperrors.CodeProviderPermanent, "model "+spec.ID+" call failed")
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return apperrors.Wrap(err, apperrors.CodeProviderTransient, "model "+spec.ID+" call failed")
		}
	}
	// 无法识别的失败按网络类错误处理，允许一次重试
	return apperrors.Wrap(err, apperrors.CodeProviderTransient, "model "+spec.ID+" call failed")
}

func statusCodeOf(err error) int {
	var oe *openaisdk.Error
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}

// isPolicyStop 判断结束原因是否为内容策略拦截
func isPolicyStop(reason string) bool {
	switch strings.ToLower(reason) {
	case "content_filter", "refusal", "safety":
		return true
	}
	return false
}

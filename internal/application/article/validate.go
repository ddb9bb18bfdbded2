package article

import (
	"fmt"

	wfmodel "article-forge-api/internal/workflow/model"
	workflowport "article-forge-api/internal/workflow/port"
	apperrors "article-forge-api/pkg/errors"
)

// 与具体模型无关的通用温度范围，模型自身的边界由模型调用层校验
const (
	minTemperature = 0.0
	maxTemperature = 2.0
)

// stagePlan 两个阶段各自的模型参数
type stagePlan struct {
	outline workflowport.GenerateParams
	content workflowport.GenerateParams
}

// validate 在任何外部调用之前完成全部校验
func (g *Generator) validate(req *wfmodel.GenerationRequest) (*stagePlan, error) {
	if req == nil {
		return nil, invalid("request is required")
	}
	req.Normalize()

	switch {
	case req.Topic == "":
		return nil, invalid("topic is required")
	case req.FocusKeyword == "":
		return nil, invalid("focus_keyword is required")
	case req.OutlineModelID == "":
		return nil, invalid("outline_model_id is required")
	case req.ContentModelID == "":
		return nil, invalid("content_model_id is required")
	case req.Temperature < minTemperature || req.Temperature > maxTemperature:
		return nil, invalid(fmt.Sprintf("temperature must be within [%.1f, %.1f]", minTemperature, maxTemperature))
	case req.MaxOutputTokens <= 0:
		return nil, invalid("max_output_tokens must be positive")
	}

	plan := &stagePlan{
		outline: workflowport.GenerateParams{
			Temperature:     req.Temperature,
			MaxOutputTokens: min(req.MaxOutputTokens, g.outlineMaxTokens),
		},
		content: workflowport.GenerateParams{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.OutlineTemperature != nil {
		plan.outline.Temperature = *req.OutlineTemperature
	}
	if req.OutlineMaxTokens != nil {
		plan.outline.MaxOutputTokens = *req.OutlineMaxTokens
	}

	if err := g.gen.ValidateParams(req.OutlineModelID, plan.outline); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "outline model parameters rejected").
			WithDetail(detailOf(err))
	}
	if err := g.gen.ValidateParams(req.ContentModelID, plan.content); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "content model parameters rejected").
			WithDetail(detailOf(err))
	}
	return plan, nil
}

func invalid(detail string) error {
	return apperrors.ErrValidationFailed.WithDetail(detail)
}

func detailOf(err error) string {
	if ae := apperrors.AsAppError(err); ae.Detail != "" {
		return ae.Detail
	} else if ae.Code != apperrors.CodeUnknown {
		return ae.Message
	}
	return err.Error()
}

package presenter

import (
	"github.com/johnquangdev/shot-analyzer/internal/adapter/dto/admin"
	"github.com/johnquangdev/shot-analyzer/internal/adapter/dto/analysis"
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"
)

// ToAnalysisResponse converts an Analysis entity to AnalysisResponse DTO
func ToAnalysisResponse(a *entities.Analysis) *analysis.AnalysisResponse {
	if a == nil {
		return nil
	}

	warnings := a.Warnings.Data()
	if warnings == nil {
		warnings = []string{}
	}

	return &analysis.AnalysisResponse{
		ID:                a.ID.String(),
		ShotType:          a.ShotType.String(),
		ShotLabel:         a.ShotLabel,
		PrimaryAngle:      string(a.PrimaryAngle),
		Status:            string(a.Status),
		StatusReason:      a.StatusReason,
		Processing:        a.ClaimedAt != nil,
		Angles:            a.Angles.Data(),
		Validation:        a.Validation.Data(),
		Boundary:          a.Boundary.Data(),
		Checklist:         a.Checklist.Data(),
		ChecklistSource:   string(a.ChecklistSource),
		Score:             a.Score,
		ScoreUnresolvable: a.ScoreUnresolvable,
		WeightProfileRef:  a.WeightProfileRef,
		Breakdown:         a.Breakdown.Data(),
		Warnings:          warnings,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// ToWeightProfileResponse converts a WeightProfile entity. Built-in
// defaults have no update time.
func ToWeightProfileResponse(p *entities.WeightProfile) *admin.WeightProfileResponse {
	if p == nil {
		return nil
	}

	response := &admin.WeightProfileResponse{
		ShotType: p.ShotType.String(),
		Version:  p.Version,
		Ref:      p.Ref(),
		Weights:  p.Weights.Data(),
		Total:    p.Total(),
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		response.UpdatedAt = &updated
	}
	return response
}

// ToRecomputeResponse converts a recompute result; runErr is the error
// that aborted the run, if any
func ToRecomputeResponse(r *recompute.Result, runErr error) *admin.RecomputeResponse {
	if r == nil {
		return nil
	}

	refs := make(map[string]string, len(r.ProfileRefs))
	for shotType, ref := range r.ProfileRefs {
		refs[shotType.String()] = ref
	}

	response := &admin.RecomputeResponse{
		UpdatedCount: r.UpdatedCount,
		SkippedCount: r.SkippedCount,
		Pages:        r.Pages,
		ProfileRefs:  refs,
	}
	if r.LastID != nil {
		response.LastID = r.LastID.String()
	}
	if runErr != nil {
		response.Error = runErr.Error()
	}
	return response
}

package answer

import (
	"github.com/hyperjump/recall/internal/models"
)

// Assemble builds the response payload. Deterministic answers carry the
// date-filtered matches as evidence; general answers carry the whole fused set.
func Assemble(out *Outcome, rng models.TemporalRange, fused []*models.Candidate) *models.AnswerPayload {
	payload := &models.AnswerPayload{
		Answer:   out.Answer,
		FollowUp: out.FollowUp,
		Branch:   string(out.Branch),
		Actions:  []models.Action{},
	}

	if out.Branch == BranchGeneral {
		payload.Evidence = fused
		if len(out.Actions) > 0 {
			payload.Actions = out.Actions
		}
	} else {
		payload.Evidence = out.Matches
	}
	if payload.Evidence == nil {
		payload.Evidence = []*models.Candidate{}
	}

	if rng.Resolved() {
		r := rng
		payload.ResolvedRange = &r
	}
	return payload
}

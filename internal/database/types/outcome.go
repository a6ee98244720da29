package types

import "github.com/biasnet/influence/internal/database/types/enum"

// Outcome is the structured result of an endorsement operation.
type Outcome struct {
	Success            bool             `json:"success"`
	Code               enum.OutcomeCode `json:"code"`
	Message            string           `json:"message"`
	NewInfluencePoints *int32           `json:"new_influence_points,omitempty"`
}

// EndorsementApplied returns a successful outcome carrying the bias total.
func EndorsementApplied(points int32, message string) *Outcome {
	return &Outcome{
		Success:            true,
		Code:               enum.OutcomeCodeOK,
		Message:            message,
		NewInfluencePoints: &points,
	}
}

// EndorsementFailed returns a failed outcome classified from err.
func EndorsementFailed(err error) *Outcome {
	return &Outcome{
		Code:    OutcomeCodeFor(err),
		Message: PublicMessage(err),
	}
}

// VoteOutcome is the structured result of a vote operation.
type VoteOutcome struct {
	Success  bool             `json:"success"`
	Code     enum.OutcomeCode `json:"code"`
	Message  string           `json:"message"`
	Counters *Counters        `json:"counters,omitempty"`
}

// VoteApplied returns a successful vote outcome with the target's counters.
func VoteApplied(counters *Counters, message string) *VoteOutcome {
	return &VoteOutcome{
		Success:  true,
		Code:     enum.OutcomeCodeOK,
		Message:  message,
		Counters: counters,
	}
}

// VoteFailed returns a failed vote outcome classified from err.
func VoteFailed(err error) *VoteOutcome {
	return &VoteOutcome{
		Code:    OutcomeCodeFor(err),
		Message: PublicMessage(err),
	}
}

package models

import "time"

// DraftView is what the booking screen renders for one draft.
type DraftView struct {
	DraftID      string          `json:"draftId"`
	Draft        Draft           `json:"draft"`
	Resource     *Resource       `json:"resource,omitempty"`
	State        WorkflowState   `json:"state"`
	Verdict      Verdict         `json:"verdict"`
	Window       *ResolvedWindow `json:"window,omitempty"`
	WindowError  *FieldProblem   `json:"windowError,omitempty"`
	CheckMessage string          `json:"checkMessage,omitempty"`
	CanSubmit    bool            `json:"canSubmit"`
	Blockers     []FieldProblem  `json:"blockers,omitempty"`

	LastResult *SubmissionResult `json:"lastResult,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// FieldProblem is a user-fixable issue tied to one form field.
type FieldProblem struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

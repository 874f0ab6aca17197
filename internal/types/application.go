// Package types provides type definitions for structured data used throughout the apply-agent system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// FieldType identifies the kind of form control a cached answer was given for.
// Cache lookups only compare records of the same FieldType.
type FieldType string

const (
	// FieldRadio is a radio option group
	FieldRadio FieldType = "radio"
	// FieldTextbox is a free-text input or textarea
	FieldTextbox FieldType = "textbox"
	// FieldNumeric is a numeric input
	FieldNumeric FieldType = "numeric"
	// FieldDate is a date-picker input
	FieldDate FieldType = "date"
	// FieldDropdown is a select control
	FieldDropdown FieldType = "dropdown"
)

// QuestionRecord is one previously given answer.
// Question is always stored normalized.
type QuestionRecord struct {
	Type     FieldType `json:"type"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}

// MatchResult is the best cached record for a question and its similarity score (0.0-1.0).
type MatchResult struct {
	Record QuestionRecord `json:"record"`
	Score  float64        `json:"score"`
}

// ApplicationJob is the in-flight state of one application attempt.
// Description and RecruiterLink are set before form filling starts;
// ResumePath and CoverLetterPath are set by the attachment handler.
type ApplicationJob struct {
	Link            string `json:"link" yaml:"link" validate:"required,url"`
	Title           string `json:"title" yaml:"title" validate:"required"`
	Company         string `json:"company,omitempty" yaml:"company,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	RecruiterLink   string `json:"recruiter_link,omitempty" yaml:"recruiter_link,omitempty"`
	ResumePath      string `json:"resume_path,omitempty" yaml:"resume_path,omitempty"`
	CoverLetterPath string `json:"cover_letter_path,omitempty" yaml:"cover_letter_path,omitempty"`
}

// Validate validates the ApplicationJob using the validator.
func (j *ApplicationJob) Validate() error {
	validate := validator.New()
	return validate.Struct(j)
}

// HasDescription reports whether the job description has been captured.
func (j *ApplicationJob) HasDescription() bool {
	return j.Description != ""
}

// Outcome is the final result of an application attempt.
type Outcome string

const (
	// OutcomeApplied means the form reached the submitted state
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the job was gated out before the form was touched
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the attempt aborted with a fatal error
	OutcomeFailed Outcome = "failed"
)

// UploadKind is the oracle's classification of a file upload control.
type UploadKind string

const (
	// UploadResume is a resume upload control
	UploadResume UploadKind = "resume"
	// UploadCover is a cover letter upload control
	UploadCover UploadKind = "cover"
	// UploadUnknown is anything the oracle could not place
	UploadUnknown UploadKind = "unknown"
)

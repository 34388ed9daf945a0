package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "franchise-leads/internal/common/errors"
	"franchise-leads/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidType          = "INVALID_TYPE"
	CodeInvalidEnumValue     = "INVALID_ENUM_VALUE"
	CodeMustBeTrue           = "MUST_BE_TRUE"
	CodeEmptyValue           = "EMPTY_VALUE"
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeInvalidValue         = "INVALID_VALUE"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Err returns nil for a valid result, otherwise a VALIDATION_FAILED error
// listing every violation.
func (vr *ValidationResult) Err() error {
	if vr == nil || vr.Valid {
		return nil
	}
	return apperrors.NewValidationFailedError(vr.GetErrorMessages())
}

func (vr *ValidationResult) add(field, message, code string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
	vr.Valid = false
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// leadSubmissionSchema is the fixed shape of POST /submit. Unknown fields are
// tolerated and dropped when the submission is built.
const leadSubmissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "fullName", "email", "phone", "cityState", "ownsBusiness",
    "interestReason", "estimatedBudget", "hasSpace", "startTimeline",
    "heardAboutUs", "confirm"
  ],
  "properties": {
    "fullName":             {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "email":                {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "phone":                {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "cityState":            {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "ownsBusiness":         {"type": "string", "enum": ["yes", "no"]},
    "businessNameIndustry": {"type": ["string", "null"]},
    "interestReason":       {"type": "string", "pattern": "\\S"},
    "estimatedBudget":      {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "hasSpace":             {"type": "string", "enum": ["yes", "no"]},
    "spaceLocationSize":    {"type": ["string", "null"]},
    "startTimeline":        {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "heardAboutUs":         {"type": "string", "pattern": "^[^\\r\\n]*\\S[^\\r\\n]*$"},
    "confirm":              {"const": true}
  }
}`

var leadSchema = mustCompile(leadSubmissionSchema)

func mustCompile(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("compile lead schema: %v", err))
	}
	return schema
}

// ValidateLeadSubmission checks an untyped payload and builds the typed
// submission. It never returns a partial submission: any violation yields a
// nil submission and a result listing all of them.
func ValidateLeadSubmission(payload map[string]interface{}) (*models.LeadSubmission, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if payload == nil {
		result.add("body", "request body must be a JSON object", CodeInvalidType)
		return nil, result
	}

	schemaResult, err := leadSchema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		result.add("body", fmt.Sprintf("unreadable payload: %v", err), CodeInvalidType)
		return nil, result
	}

	for _, desc := range schemaResult.Errors() {
		field, message, code := describe(desc)
		result.add(field, message, code)
	}

	if email, ok := payload["email"].(string); ok && strings.TrimSpace(email) != "" && !result.HasErrors("email") {
		if !ValidateEmail(strings.TrimSpace(email)) {
			result.add("email", "invalid email format", CodeInvalidFormat)
		}
	}

	if !result.Valid {
		sort.SliceStable(result.Errors, func(i, j int) bool {
			return result.Errors[i].Field < result.Errors[j].Field
		})
		return nil, result
	}

	return &models.LeadSubmission{
		FullName:             stringField(payload, "fullName"),
		Email:                stringField(payload, "email"),
		Phone:                stringField(payload, "phone"),
		CityState:            stringField(payload, "cityState"),
		OwnsBusiness:         stringField(payload, "ownsBusiness"),
		BusinessNameIndustry: stringField(payload, "businessNameIndustry"),
		InterestReason:       stringField(payload, "interestReason"),
		EstimatedBudget:      stringField(payload, "estimatedBudget"),
		HasSpace:             stringField(payload, "hasSpace"),
		SpaceLocationSize:    stringField(payload, "spaceLocationSize"),
		StartTimeline:        stringField(payload, "startTimeline"),
		HeardAboutUs:         stringField(payload, "heardAboutUs"),
		Confirm:              true,
	}, result
}

// ValidateInterestStatus checks a PATCH body value against the status enum.
func ValidateInterestStatus(value interface{}) (models.InterestStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	s, ok := value.(string)
	if !ok {
		if value == nil {
			result.add("interestStatus", "required field missing", CodeRequiredFieldMissing)
		} else {
			result.add("interestStatus", fmt.Sprintf("expected string, got %T", value), CodeInvalidType)
		}
		return "", result
	}

	status, err := models.ParseInterestStatus(s)
	if err != nil {
		result.add("interestStatus", "value must be one of high, medium, low, unassigned", CodeInvalidEnumValue)
		return "", result
	}
	return status, result
}

func describe(desc gojsonschema.ResultError) (field, message, code string) {
	field = desc.Field()
	details := desc.Details()

	switch desc.Type() {
	case "required":
		if prop, ok := details["property"].(string); ok {
			field = prop
		}
		return field, "required field missing", CodeRequiredFieldMissing
	case "invalid_type":
		return field, fmt.Sprintf("expected %v", details["expected"]), CodeInvalidType
	case "enum":
		return field, "value must be one of yes, no", CodeInvalidEnumValue
	case "const":
		return field, "must be true", CodeMustBeTrue
	case "pattern":
		if v, ok := desc.Value().(string); ok && strings.ContainsAny(v, "\r\n") {
			return field, "must be a single line", CodeInvalidFormat
		}
		return field, "must not be empty", CodeEmptyValue
	}
	if field == "(root)" {
		field = "body"
	}
	return field, desc.Description(), CodeInvalidValue
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

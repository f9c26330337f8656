package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kimconnect/internship-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	// Report fields by their JSON names, matching the business-rule errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate, now: time.Now}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRegistration requires a company name for employer sign-ups.
func (bv *BusinessValidator) ValidateRegistration(req *RegisterRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Role == models.RoleEmployer && (req.CompanyName == nil || strings.TrimSpace(*req.CompanyName) == "") {
		errors = append(errors, ValidationError{
			Field:   "company_name",
			Message: "is required for employer accounts",
			Rule:    "required_for_employer",
		})
	}

	return errors
}

// ValidateOpportunityCreate validates opportunity creation business rules
func (bv *BusinessValidator) ValidateOpportunityCreate(req *OpportunityCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	errors = append(errors, bv.validateLocation(req.LocationType, req.Location)...)
	errors = append(errors, bv.validateSchedule(req.Deadline, req.StartDate, req.DurationValue, req.DurationType)...)

	return errors
}

// ValidateOpportunityUpdate validates the merged state an update would produce.
func (bv *BusinessValidator) ValidateOpportunityUpdate(req *OpportunityUpdateRequest, existing *models.Opportunity) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	locationType := existing.LocationType
	if req.LocationType != nil {
		locationType = *req.LocationType
	}
	location := existing.Location
	if req.Location != nil {
		location = req.Location
	}
	errors = append(errors, bv.validateLocation(locationType, location)...)

	if req.Deadline != nil && req.Deadline.Before(bv.now()) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   req.Deadline,
			Rule:    "future_date",
		})
	}

	return errors
}

// ValidateCertificateIssue checks the fields a certificate needs when it is not
// derived from an application.
func (bv *BusinessValidator) ValidateCertificateIssue(req *CertificateIssueRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.ApplicationID == nil {
		if req.StudentID == nil {
			errors = append(errors, ValidationError{Field: "student_id", Message: "is required without application_id", Rule: "required_without"})
		}
		if req.OpportunityTitle == nil || strings.TrimSpace(*req.OpportunityTitle) == "" {
			errors = append(errors, ValidationError{Field: "opportunity_title", Message: "is required without application_id", Rule: "required_without"})
		}
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "must not be before start_date",
			Value:   req.EndDate,
			Rule:    "date_range",
		})
	}

	return errors
}

func (bv *BusinessValidator) validateLocation(locationType models.LocationType, location *string) ValidationErrors {
	if locationType == models.LocationRemote {
		return nil
	}
	if location == nil || strings.TrimSpace(*location) == "" {
		return ValidationErrors{{
			Field:   "location",
			Message: "is required for in-person and hybrid opportunities",
			Value:   locationType,
			Rule:    "required_unless_remote",
		}}
	}
	return nil
}

func (bv *BusinessValidator) validateSchedule(deadline, startDate *time.Time, durationValue *int, durationType *models.DurationType) ValidationErrors {
	var errors ValidationErrors

	if deadline != nil && deadline.Before(bv.now()) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   deadline,
			Rule:    "future_date",
		})
	}

	if deadline != nil && startDate != nil && startDate.Before(*deadline) {
		errors = append(errors, ValidationError{
			Field:   "start_date",
			Message: "must not be before the application deadline",
			Value:   startDate,
			Rule:    "date_range",
		})
	}

	if durationValue != nil && (durationType == nil || *durationType == models.DurationOngoing) {
		errors = append(errors, ValidationError{
			Field:   "duration_type",
			Message: "must be days, weeks, or months when duration_value is set",
			Rule:    "duration_pair",
		})
	}

	return errors
}

func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("location_type", func(fl validator.FieldLevel) bool {
		switch models.LocationType(fl.Field().String()) {
		case models.LocationRemote, models.LocationInPerson, models.LocationHybrid:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("duration_type", func(fl validator.FieldLevel) bool {
		switch models.DurationType(fl.Field().String()) {
		case models.DurationDays, models.DurationWeeks, models.DurationMonths, models.DurationOngoing:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("application_status", func(fl validator.FieldLevel) bool {
		return models.ApplicationStatus(fl.Field().String()).IsValid()
	})

	// Administrators are provisioned out of band, never through sign-up
	bv.validate.RegisterValidation("registration_role", func(fl validator.FieldLevel) bool {
		role := models.UserRole(fl.Field().String())
		return role == models.RoleStudent || role == models.RoleEmployer
	})

	// Pending is reached only through registration
	bv.validate.RegisterValidation("user_status", func(fl validator.FieldLevel) bool {
		switch models.UserStatus(fl.Field().String()) {
		case models.UserStatusActive, models.UserStatusInactive, models.UserStatusBanned:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("year_of_study", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= 1 && year <= 5
	})

	bv.validate.RegisterValidation("skill_name", func(fl validator.FieldLevel) bool {
		name := models.NormalizeSkillName(fl.Field().String())
		return len(name) >= 1 && len(name) <= 100
	})
}

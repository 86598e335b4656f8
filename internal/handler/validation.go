package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"authbridge/internal/domain"
)

// enumSets backs the "enum=<set>" binding rule.
var enumSets = map[string][]string{
	"gender":         domain.Genders,
	"religion":       domain.Religions,
	"rashi":          domain.Rashis,
	"marital_status": domain.MaritalStatuses,
	"state":          domain.IndianStates,
}

// ProfileAttributesRequest carries the optional demographic attributes accepted on
// registration and profile update.
type ProfileAttributesRequest struct {
	Name          *string `json:"name" binding:"omitempty,notblank"`
	Gender        *string `json:"gender" binding:"omitempty,enum=gender"`
	DOB           *string `json:"dob" binding:"omitempty,isodate"`
	HeightFeet    *int    `json:"heightFeet" binding:"omitempty,min=0,max=8"`
	HeightInches  *int    `json:"heightInches" binding:"omitempty,min=0,max=11"`
	Religion      *string `json:"religion" binding:"omitempty,enum=religion"`
	Caste         *string `json:"caste" binding:"omitempty,notblank"`
	Rashi         *string `json:"rashi" binding:"omitempty,enum=rashi"`
	Education     *string `json:"education" binding:"omitempty,notblank"`
	Occupation    *string `json:"occupation" binding:"omitempty,notblank"`
	AnnualIncome  *int64  `json:"annualIncome" binding:"omitempty,min=0"`
	MaritalStatus *string `json:"maritalStatus" binding:"omitempty,enum=marital_status"`
	HomeAddress   *string `json:"homeAddress" binding:"omitempty,notblank"`
	Expectation   *string `json:"expectation" binding:"omitempty,notblank"`
	City          *string `json:"city" binding:"omitempty,notblank"`
	Pincode       *int    `json:"pincode" binding:"omitempty,min=100000,max=999999"`
	State         *string `json:"state" binding:"omitempty,enum=state"`
	ContactNumber *string `json:"contactNumber" binding:"omitempty,notblank"`
}

func (r *ProfileAttributesRequest) toAttributes() domain.ExtendedAttributes {
	if r == nil {
		return domain.ExtendedAttributes{}
	}
	return domain.ExtendedAttributes{
		Name:          r.Name,
		Gender:        r.Gender,
		DOB:           r.DOB,
		HeightFeet:    r.HeightFeet,
		HeightInches:  r.HeightInches,
		Religion:      r.Religion,
		Caste:         r.Caste,
		Rashi:         r.Rashi,
		Education:     r.Education,
		Occupation:    r.Occupation,
		AnnualIncome:  r.AnnualIncome,
		MaritalStatus: r.MaritalStatus,
		HomeAddress:   r.HomeAddress,
		Expectation:   r.Expectation,
		City:          r.City,
		Pincode:       r.Pincode,
		State:         r.State,
		ContactNumber: r.ContactNumber,
	}
}

// ProfileUpdateRequest is the profile update body. The core demographic fields
// are mandatory here.
type ProfileUpdateRequest struct {
	ProfileAttributesRequest
}

// GoogleSessionRequest is a session obtained by the client from the Google OAuth flow.
type GoogleSessionRequest struct {
	AccessToken  string `json:"accessToken" binding:"required,notblank"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn" binding:"omitempty,min=0"`
	TokenType    string `json:"tokenType"`
}

// RefreshRequest optionally carries the refresh token in the body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest is the password registration body.
type RegisterRequest struct {
	Email    string                    `json:"email" binding:"required,email"`
	Password string                    `json:"password" binding:"required,min=8"`
	Metadata *ProfileAttributesRequest `json:"metadata"`
}

// LoginRequest is the password login body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
// It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("enum", validateEnum)
		_ = v.RegisterValidation("isodate", validateISODate)
		_ = v.RegisterValidation("notblank", validateNotBlank)
		v.RegisterStructValidation(validateHeight, ProfileAttributesRequest{})
		v.RegisterStructValidation(validateRequiredProfile, ProfileUpdateRequest{})
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateEnum(fl validator.FieldLevel) bool {
	set, ok := enumSets[fl.Param()]
	if !ok {
		return false
	}
	return slices.Contains(set, fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, ok := domain.ParseDate(fl.Field().String())
	return ok
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateHeight rejects a height of zero feet and zero inches.
func validateHeight(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(ProfileAttributesRequest)
	if !ok || (req.HeightFeet == nil && req.HeightInches == nil) {
		return
	}
	if intOrZero(req.HeightFeet) == 0 && intOrZero(req.HeightInches) == 0 {
		sl.ReportError(req.HeightFeet, "heightFeet", "HeightFeet", "height_nonzero", "")
	}
}

func validateRequiredProfile(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(ProfileUpdateRequest)
	if !ok {
		return
	}
	required := []struct {
		name  string
		field any
		set   bool
	}{
		{"name", req.Name, req.Name != nil},
		{"gender", req.Gender, req.Gender != nil},
		{"dob", req.DOB, req.DOB != nil},
		{"heightFeet", req.HeightFeet, req.HeightFeet != nil},
		{"heightInches", req.HeightInches, req.HeightInches != nil},
		{"religion", req.Religion, req.Religion != nil},
		{"caste", req.Caste, req.Caste != nil},
		{"rashi", req.Rashi, req.Rashi != nil},
	}
	for _, f := range required {
		if !f.set {
			sl.ReportError(f.field, f.name, f.name, "required", "")
		}
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// bindJSON binds and validates the request body.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints that accept an empty body.
func bindOptionalJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return bindError(err)
}

// requireEmptyBody accepts no body or an empty JSON object.
func requireEmptyBody(c *gin.Context) error {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 4096))
	if err != nil {
		return domain.ErrBadRequest.WithCause(err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.ErrValidation.WithMessage(`"value" must be of type object`)
	}
	if len(obj) > 0 {
		return domain.ErrValidation.WithMessage(`"value" must have less than or equal to 0 keys`)
	}
	return nil
}

// bindError converts a binding failure into a domain error. Every field
// violation is reported, joined by ", ".
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return domain.ErrValidation.WithMessage(strings.Join(msgs, ", "))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.ErrValidation.WithMessage(fmt.Sprintf(`"%s" must be a %s`, typeErr.Field, jsonTypeName(typeErr.Type)))
	}
	return domain.ErrBadRequest.WithMessage("Malformed request body").WithCause(err)
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(`"%s" is required`, name)
	case "email":
		return fmt.Sprintf(`"%s" must be a valid email`, name)
	case "notblank":
		return fmt.Sprintf(`"%s" is not allowed to be empty`, name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(`"%s" length must be at least %s characters long`, name, fe.Param())
		}
		return fmt.Sprintf(`"%s" must be greater than or equal to %s`, name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(`"%s" length must be less than or equal to %s characters long`, name, fe.Param())
		}
		return fmt.Sprintf(`"%s" must be less than or equal to %s`, name, fe.Param())
	case "enum":
		return fmt.Sprintf(`"%s" must be one of [%s]`, name, strings.Join(enumSets[fe.Param()], ", "))
	case "isodate":
		return fmt.Sprintf(`"%s" must be in ISO 8601 date format`, name)
	case "height_nonzero":
		return "provide height in feet and/or inches"
	default:
		return fmt.Sprintf(`"%s" is invalid`, name)
	}
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Ptr:
		return jsonTypeName(t.Elem())
	default:
		return "object"
	}
}

package service

import (
	"fmt"
	"strings"

	"authbridge/internal/domain"
)

// CompletenessPolicy decides whether a profile carries every required field.
// It is evaluated on each read; the result is never stored.
type CompletenessPolicy interface {
	Name() string
	Complete(p *domain.Profile) bool
}

// NewCompletenessPolicy returns the policy registered under name.
func NewCompletenessPolicy(name string) (CompletenessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "federated":
		return federatedPolicy{}, nil
	case "extended":
		return extendedPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown completeness policy %q", name)
	}
}

// federatedPolicy only needs a display name.
type federatedPolicy struct{}

func (federatedPolicy) Name() string { return "federated" }

func (federatedPolicy) Complete(p *domain.Profile) bool {
	return p != nil && present(p.FullName)
}

// extendedPolicy requires the demographic fields collected by the profile form.
type extendedPolicy struct{}

func (extendedPolicy) Name() string { return "extended" }

func (extendedPolicy) Complete(p *domain.Profile) bool {
	if p == nil {
		return false
	}
	a := p.Attributes
	return present(p.FullName) &&
		present(a.Gender) &&
		validDate(a.DOB) &&
		validHeight(a.HeightFeet, a.HeightInches) &&
		present(a.Religion) &&
		present(a.Caste) &&
		present(a.Rashi)
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func validDate(s *string) bool {
	if !present(s) {
		return false
	}
	_, ok := domain.ParseDate(*s)
	return ok
}

// validHeight accepts feet and/or inches within range, as long as they are not both zero.
func validHeight(feet, inches *int) bool {
	if feet == nil && inches == nil {
		return false
	}
	var f, i int
	if feet != nil {
		f = *feet
	}
	if inches != nil {
		i = *inches
	}
	if f < 0 || f > domain.MaxHeightFeet || i < 0 || i > domain.MaxHeightInches {
		return false
	}
	return f != 0 || i != 0
}

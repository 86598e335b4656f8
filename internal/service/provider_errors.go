package service

import (
	"errors"

	"authbridge/internal/domain"
	"authbridge/internal/port"
)

// providerFailure translates an identity provider error. Outages and transport
// failures become ErrProviderUnavailable; rejections become rejected, carrying
// the provider's message when keepMessage is set.
func providerFailure(err error, rejected *domain.Error, keepMessage bool) error {
	var pe *port.ProviderError
	if !errors.As(err, &pe) || pe.Unavailable() {
		return domain.ErrProviderUnavailable.WithMessage("Identity provider unavailable").WithCause(err)
	}
	if keepMessage && pe.Message != "" {
		return rejected.WithMessage(pe.Message).WithCause(err)
	}
	return rejected.WithCause(err)
}

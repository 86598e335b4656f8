package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }

func TestExtendedAttributes_Sanitize(t *testing.T) {
	in := domain.ExtendedAttributes{
		Name:       strPtr("  Jo  "),
		Caste:      strPtr("   "),
		HeightFeet: intPtr(5),
	}

	out := in.Sanitize()

	require.NotNil(t, out.Name)
	assert.Equal(t, "Jo", *out.Name)
	assert.Nil(t, out.Caste)
	assert.Equal(t, 5, *out.HeightFeet)
	assert.Equal(t, "  Jo  ", *in.Name, "receiver is not modified")
}

func TestExtendedAttributes_IsEmpty(t *testing.T) {
	assert.True(t, domain.ExtendedAttributes{}.IsEmpty())
	assert.True(t, domain.ExtendedAttributes{City: strPtr(" ")}.Sanitize().IsEmpty())
	assert.False(t, domain.ExtendedAttributes{HeightInches: intPtr(0)}.IsEmpty())
}

func TestExtendedAttributes_Merge(t *testing.T) {
	base := domain.ExtendedAttributes{Name: strPtr("Jo"), City: strPtr("Pune")}
	patch := domain.ExtendedAttributes{City: strPtr("Delhi"), Gender: strPtr("FEMALE")}

	merged := base.Merge(patch)

	assert.Equal(t, "Jo", *merged.Name)
	assert.Equal(t, "Delhi", *merged.City)
	assert.Equal(t, "FEMALE", *merged.Gender)
}

func TestExtendedAttributes_ScanValue(t *testing.T) {
	in := domain.ExtendedAttributes{Name: strPtr("Jo"), Pincode: intPtr(411001)}
	v, err := in.Value()
	require.NoError(t, err)

	var out domain.ExtendedAttributes
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.True(t, out.IsEmpty())
	assert.Error(t, out.Scan(42))
}

func TestErrorIs_MatchesByCode(t *testing.T) {
	wrapped := domain.ErrProviderUnavailable.WithCause(assert.AnError)
	assert.ErrorIs(t, wrapped, domain.ErrProviderUnavailable)
	assert.NotErrorIs(t, wrapped, domain.ErrProviderDisabled)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, domain.KindServiceUnavailable, domain.KindOf(wrapped))
	assert.Equal(t, domain.KindInternal, domain.KindOf(assert.AnError))
}

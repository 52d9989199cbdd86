package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inboundemail/inbound-core/internal/model"
)

func TestDomainLockKey_StableAndDomainSpecific(t *testing.T) {
	a := domainLockKey("example.com")
	b := domainLockKey("example.com")
	c := domainLockKey("other.example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestActiveAddresses_FiltersInactive(t *testing.T) {
	addrs := []model.EmailAddress{
		{Address: "active@example.com", IsActive: true},
		{Address: "inactive@example.com", IsActive: false},
		{Address: "also-active@example.com", IsActive: true},
	}

	out := activeAddresses(addrs)

	assert.Equal(t, []string{"active@example.com", "also-active@example.com"}, out)
}

func TestActiveAddresses_EmptyInput(t *testing.T) {
	out := activeAddresses(nil)

	assert.Empty(t, out)
}

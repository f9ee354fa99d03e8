package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/pubconcept/pkg/errors"
)

func TestValidateDescriptor(t *testing.T) {
	for _, ok := range []string{"D009369", "D000069295"} {
		assert.NoError(t, ValidateDescriptor(ok), ok)
	}
	for _, bad := range []string{"", "D12345", "D1234567", "d009369", "C009369", "D00936A", "D0000692951", " D009369"} {
		err := ValidateDescriptor(bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorInvalid), bad)
	}
}

func TestNewTreePosition(t *testing.T) {
	assert.Equal(t, TreePosition{ID: "C04.588.274", Parent: "C04.588"}, NewTreePosition("C04.588.274"))
	assert.Equal(t, TreePosition{ID: "C04"}, NewTreePosition("C04"))
}

//Personal.AI order the ending

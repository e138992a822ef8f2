package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/genstore/internal/fault"
)

func TestRequire(t *testing.T) {
	tests := []struct {
		name    string
		id      Static
		allowed bool
	}{
		{"owner", Static{"genstore.near", "genstore.near"}, true},
		{"stranger", Static{"mallory.near", "genstore.near"}, false},
		{"empty caller", Static{"", "genstore.near"}, false},
		{"empty owner", Static{"", ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.id)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, fault.IsUnauthorized(err))
		})
	}
}

func TestRequireMessageNamesPrincipals(t *testing.T) {
	err := Require(Static{"mallory.near", "genstore.near"})
	assert.Contains(t, err.Error(), `"mallory.near"`)
	assert.Contains(t, err.Error(), `"genstore.near"`)
}

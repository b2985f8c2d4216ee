package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLVerb(t *testing.T) {
	assert.Equal(t, "select", sqlVerb("  SELECT id FROM users WHERE email = $1"))
	assert.Equal(t, "insert", sqlVerb("\n\tinsert into users (email) values ($1)"))
	assert.Equal(t, "unknown", sqlVerb("   "))
}

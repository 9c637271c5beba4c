package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecker_CollectsAllViolations(t *testing.T) {
	var c Checker
	c.Required("summary", "   ")
	c.MaxLen("description", strings.Repeat("x", 11), 10)
	c.OneOf("severity", "catastrophic", "low", "medium", "high", "critical")
	c.Email("email", "not-an-email")

	err := c.Err()
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Violations, 4)

	fields := make([]string, 0, len(ve.Violations))
	for _, v := range ve.Violations {
		fields = append(fields, v.Field)
	}
	require.Equal(t, []string{"summary", "description", "severity", "email"}, fields)
}

func TestChecker_NoViolationsNilError(t *testing.T) {
	var c Checker
	c.Required("summary", "algo")
	c.MaxLen("summary", "algo", 255)
	c.OneOf("severity", "high", "low", "medium", "high", "critical")
	c.Email("email", "ana@example.com")
	require.NoError(t, c.Err())
}

func TestChecker_EmptyOptionalSkipsFormatRules(t *testing.T) {
	var c Checker
	c.MaxLen("description", "", 10)
	c.OneOf("severity", "", "low", "high")
	c.Email("email", "")
	require.NoError(t, c.Err())
}

func TestChecker_MaxLenCountsRunes(t *testing.T) {
	var c Checker
	c.MaxLen("summary", strings.Repeat("ñ", 10), 10)
	require.NoError(t, c.Err())

	c.MaxLen("summary", strings.Repeat("ñ", 11), 10)
	require.Error(t, c.Err())
}

func TestError_MessageListsEveryField(t *testing.T) {
	var c Checker
	c.Required("a", "")
	c.Required("b", "")
	msg := c.Err().Error()
	require.Contains(t, msg, "a:")
	require.Contains(t, msg, "b:")
}

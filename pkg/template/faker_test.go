package template

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakerVocabulary(t *testing.T) {
	vocab := []string{
		"id", "name", "firstName", "lastName", "email", "phone", "number",
		"boolean", "date", "timestamp", "company", "title", "url", "avatar",
		"color", "ip", "slug", "lorem", "paragraph",
	}
	for _, name := range vocab {
		t.Run(name, func(t *testing.T) {
			got, ok := resolveFaker(name)
			require.True(t, ok)
			assert.NotEmpty(t, got)
		})
	}
}

func TestFakerUnknown(t *testing.T) {
	_, ok := resolveFaker("nope")
	assert.False(t, ok)
}

func TestFakerEmail(t *testing.T) {
	got, _ := resolveFaker("email")
	assert.Contains(t, got, "@")
	assert.Equal(t, strings.ToLower(got), got)
}

func TestFakerNumberCoerces(t *testing.T) {
	v := ResolveString("{{faker.number}}", nil)
	n, ok := v.(float64)
	require.True(t, ok, "faker.number should coerce to a number, got %T", v)
	assert.GreaterOrEqual(t, n, float64(1))
	assert.LessOrEqual(t, n, float64(1000))
}

func TestFakerBooleanCoerces(t *testing.T) {
	v := ResolveString("{{faker.boolean}}", nil)
	_, ok := v.(bool)
	assert.True(t, ok, "faker.boolean should coerce to a bool, got %T", v)
}

func TestFakerDateFormat(t *testing.T) {
	got, _ := resolveFaker("date")
	_, err := time.Parse("2006-01-02", got)
	assert.NoError(t, err)
}

func TestFakerTimestampFormat(t *testing.T) {
	got, _ := resolveFaker("timestamp")
	_, err := time.Parse(time.RFC3339, got)
	assert.NoError(t, err)
}

func TestFakerIP(t *testing.T) {
	got, _ := resolveFaker("ip")
	assert.NotNil(t, net.ParseIP(got))
}

func TestFakerPhone(t *testing.T) {
	got, _ := resolveFaker("phone")
	assert.True(t, strings.HasPrefix(got, "+1-555-"))
}

func TestFakerColor(t *testing.T) {
	got, _ := resolveFaker("color")
	require.Len(t, got, 7)
	assert.Equal(t, byte('#'), got[0])
	_, err := strconv.ParseUint(got[1:], 16, 32)
	assert.NoError(t, err)
}

func TestFakerSlug(t *testing.T) {
	got, _ := resolveFaker("slug")
	assert.Contains(t, got, "-")
	assert.Equal(t, strings.ToLower(got), got)
}

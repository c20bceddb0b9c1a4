package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestFormat(t *testing.T) {
	t.Run("json object is indented", func(t *testing.T) {
		got := Format(ptr(`{"id":"evt_1","data":{"amount":100}}`))

		require.NotNil(t, got)
		assert.Equal(t, "{\n  \"id\": \"evt_1\",\n  \"data\": {\n    \"amount\": 100\n  }\n}", *got)
	})

	t.Run("surrounding whitespace is dropped", func(t *testing.T) {
		got := Format(ptr("  [1,2]\n"))

		require.NotNil(t, got)
		assert.Equal(t, "[\n  1,\n  2\n]", *got)
	})

	t.Run("non json is returned as is", func(t *testing.T) {
		body := "amount=100&currency=usd"
		got := Format(&body)

		require.NotNil(t, got)
		assert.Equal(t, body, *got)
	})

	t.Run("truncated json is returned as is", func(t *testing.T) {
		body := `{"id":"evt_1"`
		got := Format(&body)

		require.NotNil(t, got)
		assert.Equal(t, body, *got)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Format(nil))
	})
}

func TestEventType(t *testing.T) {
	tests := []struct {
		name string
		body *string
		want string
	}{
		{"stripe event", ptr(`{"id":"evt_1","type":"invoice.payment_succeeded"}`), "invoice.payment_succeeded"},
		{"single segment", ptr(`{"type":"ping"}`), "ping"},
		{"no type field", ptr(`{"id":"evt_1"}`), ""},
		{"type with dashes", ptr(`{"type":"invoice-paid"}`), ""},
		{"type not a string", ptr(`{"type":42}`), ""},
		{"array body", ptr(`[{"type":"invoice.paid"}]`), ""},
		{"plain text", ptr("hello"), ""},
		{"nil body", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventType(tt.body))
		})
	}
}

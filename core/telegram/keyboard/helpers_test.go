package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContactPutsContactRowFirst(t *testing.T) {
	m := WithContact("📱 Share", []string{"⬅️ Back", "❌ Cancel"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.True(t, m.ReplyKeyboard[0][0].Contact)
	assert.Equal(t, "📱 Share", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "⬅️ Back", m.ReplyKeyboard[1][0].Text)
	assert.True(t, m.ResizeKeyboard)
}

func TestReplyButtonsSkipsEmpty(t *testing.T) {
	m := ReplyButtons([]string{"a", ""}, nil, []string{"b"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Len(t, m.ReplyKeyboard[0], 1)
	assert.Nil(t, m.InlineKeyboard)
}

func TestInlineButtons(t *testing.T) {
	m := InlineButtons([]InlineBtn{{Text: "Phone", Unique: "free_phone"}, {Text: "Username", Unique: "free_username"}})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "Phone", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "free_username", m.InlineKeyboard[1][0].Unique)
}

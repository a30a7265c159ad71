package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateDecode(t *testing.T) {
	raw := []byte(`{
		"update_id": 10,
		"message": {
			"message_id": 5,
			"chat": {"id": -100, "type": "supergroup", "title": "Members"},
			"new_chat_members": [
				{"id": 1, "is_bot": false, "username": "alice", "first_name": "Alice"},
				{"id": 2, "is_bot": true, "username": "other_bot"}
			]
		}
	}`)

	var u Update
	require.NoError(t, json.Unmarshal(raw, &u))
	require.NotNil(t, u.Message)
	assert.Equal(t, int64(-100), u.Message.Chat.Chat().ID)
	assert.Equal(t, "Members", u.Message.Chat.Chat().Title)
	require.Len(t, u.Message.NewChatMembers, 2)
	assert.Equal(t, "alice", u.Message.NewChatMembers[0].Username)
	assert.True(t, u.Message.NewChatMembers[1].IsBot)
}

func TestChatMemberUpdatedTransitions(t *testing.T) {
	tests := []struct {
		old, new     string
		joined, left bool
	}{
		{"left", "member", true, false},
		{"kicked", "restricted", true, false},
		{"member", "left", false, true},
		{"administrator", "kicked", false, true},
		{"member", "administrator", false, false},
		{"left", "kicked", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.old+"->"+tt.new, func(t *testing.T) {
			u := ChatMemberUpdated{
				OldChatMember: ChatMember{Status: tt.old},
				NewChatMember: ChatMember{Status: tt.new},
			}
			assert.Equal(t, tt.joined, u.Joined())
			assert.Equal(t, tt.left, u.Left())
		})
	}
}

func TestVerifyWebhookSecret(t *testing.T) {
	assert.True(t, VerifyWebhookSecret("s3cret", "s3cret"))
	assert.False(t, VerifyWebhookSecret("nope", "s3cret"))
	assert.False(t, VerifyWebhookSecret("", "s3cret"))
	assert.False(t, VerifyWebhookSecret("s3cret", ""))
}

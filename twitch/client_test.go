package twitch

import (
	"testing"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"

	"twitch-chat-moderator/tokens"
)

func newTestClient() *Client {
	store := tokens.NewStore(tokens.Credentials{BotUsername: "icarus", AccessToken: "a0"}, tokens.SessionOptions{Channels: []string{"chan"}}, nil)
	return NewClient(store, "42", nil)
}

func TestToChatMessage(t *testing.T) {
	c := newTestClient()
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	msg := c.toChatMessage(twitchirc.PrivateMessage{
		User: twitchirc.User{
			ID:          "100",
			Name:        "viewer",
			DisplayName: "Viewer",
			Badges:      map[string]int{"moderator": 1},
		},
		Channel: "#chan",
		Message: "!echo hi",
		ID:      "msg-1",
		Time:    sentAt,
	})

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "chan", msg.Channel)
	assert.Equal(t, "100", msg.UserID)
	assert.Equal(t, "Viewer", msg.DisplayName)
	assert.Equal(t, "!echo hi", msg.Text)
	assert.True(t, msg.IsMod)
	assert.False(t, msg.IsSelf)
	assert.Equal(t, sentAt, msg.SentAt)
}

func TestToChatMessageDetectsSelf(t *testing.T) {
	c := newTestClient()

	byName := c.toChatMessage(twitchirc.PrivateMessage{User: twitchirc.User{ID: "1", Name: "Icarus"}, Channel: "#chan"})
	assert.True(t, byName.IsSelf)

	byID := c.toChatMessage(twitchirc.PrivateMessage{User: twitchirc.User{ID: "42", Name: "renamed"}, Channel: "#chan"})
	assert.True(t, byID.IsSelf)

	other := c.toChatMessage(twitchirc.PrivateMessage{User: twitchirc.User{ID: "7", Name: "viewer"}, Channel: "#chan"})
	assert.False(t, other.IsSelf)
	assert.False(t, other.SentAt.IsZero())
}

func TestToNotice(t *testing.T) {
	notice := toNotice(twitchirc.NoticeMessage{Channel: "#chan", MsgID: "msg_banned", Message: "You are permanently banned"})
	assert.Equal(t, "chan", notice.Channel)
	assert.Equal(t, "msg_banned", notice.ID)
}

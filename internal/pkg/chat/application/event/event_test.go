package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

const (
	userID = "5d8f3f5e-8a62-4d7a-9d3c-1f2b3c4d5e6f"
	msgID  = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{
			name:  "send message",
			frame: `{"type":"sendMessage","payload":{"receiverId":"` + userID + `","content":"hi","type":"text"}}`,
			want:  SendMessage{ReceiverID: userID, Content: "hi", MessageType: chat.MessageTypeText},
		},
		{
			name:  "send message with reply",
			frame: `{"type":"sendMessage","payload":{"receiverId":"` + userID + `","content":"hi","replyingTo":"` + msgID + `"}}`,
			want:  SendMessage{ReceiverID: userID, Content: "hi", ReplyingTo: msgID},
		},
		{
			name:  "group message",
			frame: `{"type":"sendGroupMessage","payload":{"groupId":"` + userID + `","content":"yo","type":"image"}}`,
			want:  SendGroupMessage{GroupID: userID, Content: "yo", MessageType: chat.MessageTypeImage},
		},
		{
			name:  "edit",
			frame: `{"type":"editMessage","payload":{"messageId":"` + msgID + `","newContent":"fixed"}}`,
			want:  EditMessage{MessageID: msgID, NewContent: "fixed"},
		},
		{
			name:  "delete",
			frame: `{"type":"deleteMessage","payload":{"messageId":"` + msgID + `"}}`,
			want:  DeleteMessage{MessageID: msgID},
		},
		{
			name:  "typing",
			frame: `{"type":"startTyping","payload":{"receiverId":"` + userID + `"}}`,
			want:  StartTyping{ReceiverID: userID},
		},
		{
			name:  "stop group typing",
			frame: `{"type":"stopTypingGroup","payload":{"groupId":"` + userID + `"}}`,
			want:  StopTypingGroup{GroupID: userID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	frames := map[string]string{
		"not json":          `{`,
		"missing type":      `{"payload":{}}`,
		"unknown type":      `{"type":"joinRoom","payload":{}}`,
		"missing payload":   `{"type":"deleteMessage"}`,
		"null payload":      `{"type":"deleteMessage","payload":null}`,
		"wrong field type":  `{"type":"deleteMessage","payload":{"messageId":5}}`,
		"missing receiver":  `{"type":"sendMessage","payload":{"content":"hi"}}`,
		"receiver not uuid": `{"type":"sendMessage","payload":{"receiverId":"bob","content":"hi"}}`,
		"blank content":     `{"type":"sendMessage","payload":{"receiverId":"` + userID + `","content":"  "}}`,
		"bad reply id":      `{"type":"sendMessage","payload":{"receiverId":"` + userID + `","content":"x","replyingTo":"1"}}`,
		"empty edit":        `{"type":"editMessage","payload":{"messageId":"` + msgID + `","newContent":""}}`,
		"missing group":     `{"type":"startTypingGroup","payload":{}}`,
	}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(frame))
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
			assert.ErrorIs(t, err, chat.ErrMalformed)
		})
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(TypeMessageDeleted, MessageDeleted{MessageID: msgID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"messageDeleted","payload":{"messageId":"`+msgID+`"}}`, string(b))

	b, err = OnlineUsers(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"onlineUsers","payload":[]}`, string(b))

	b, err = Encode(TypeGroupTyping, GroupTyping{GroupID: "g", Username: "alice"})
	require.NoError(t, err)
	var env struct {
		Type    Type            `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Equal(t, TypeGroupTyping, env.Type)
	assert.JSONEq(t, `{"groupId":"g","username":"alice"}`, string(env.Payload))
}

package messaging

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewPubSub_ProjectRequired(t *testing.T) {
	_, err := NewPubSub(context.Background(), PubSubConfig{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))

	attrs := headersToAttributes([]Header{
		{Key: "cID", Value: []byte("c-1")},
		{Key: "cID", Value: []byte("c-2")},
		{Key: "", Value: []byte("dropped")},
		{Key: "kind", Value: []byte("lockout")},
	})
	assert.Equal(t, map[string]string{"cID": "c-1", "kind": "lockout"}, attrs)
}

func TestPubSubMessage_Headers(t *testing.T) {
	msg := &pubSubMessage{
		source: "twofactor_security",
		msg:    &pubsub.Message{Data: []byte("x"), Attributes: map[string]string{"cID": "c-1"}},
	}

	assert.Equal(t, "c-1", msg.Header("cID"))
	assert.Empty(t, msg.Header("missing"))
	assert.Equal(t, []Header{{Key: "cID", Value: []byte("c-1")}}, msg.Headers())
	assert.Equal(t, "twofactor_security", msg.Source())
	assert.Equal(t, []byte("x"), msg.Body())
}

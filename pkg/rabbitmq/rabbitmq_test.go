package rabbitmq_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalbid/internal/logging"
	"royalbid/pkg/rabbitmq"
)

// Requires a broker at RABBITMQ_TEST_URL; skipped otherwise.
func testURL(t *testing.T) string {
	url := os.Getenv("RABBITMQ_TEST_URL")
	if url == "" {
		t.Skip("RABBITMQ_TEST_URL not set")
	}
	return url
}

func TestPublish_DeliversToBoundQueue(t *testing.T) {
	url := testURL(t)
	exchange := "royalbid-test"

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: url, Exchange: exchange}, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "product.*", exchange, false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), "product.created", map[string]string{"id": "p-1"}))

	select {
	case msg := <-msgs:
		assert.Equal(t, "product.created", msg.RoutingKey)
		var body map[string]string
		require.NoError(t, json.Unmarshal(msg.Body, &body))
		assert.Equal(t, "p-1", body["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: testURL(t), Exchange: "royalbid-test"}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, client.Close())
	assert.Error(t, client.Publish(context.Background(), "product.deleted", struct{}{}))
}

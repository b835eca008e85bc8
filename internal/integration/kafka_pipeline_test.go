//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/adapter/kafka"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/config"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/pipeline"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/policy"
)

const testTopic = "test-runway-assignments"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("runway-selector"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedMessage struct {
	Value   kafka.AssignmentMessage
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read assignment")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var value kafka.AssignmentMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value))
	return publishedMessage{Value: value, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestWriterPublish round-trips one assignment through Kafka.
func TestWriterPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	at := time.Date(2024, time.February, 8, 9, 20, 0, 0, time.UTC)
	require.NoError(t, writer.Publish(ctx, []domain.Assignment{{
		ICAO:   "ENZV",
		Source: domain.ComputedFromObservation,
		Selection: domain.NewSelection(
			domain.Entry{Ident: "18", Usage: domain.Both},
		),
	}}, at))

	msg := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "ENZV", msg.Key)
	assert.Equal(t, "metar", msg.Headers["source"])
	assert.Equal(t, "2024-02-08T09:20:00Z", msg.Headers["assigned_at"])
	assert.Equal(t, []kafka.RunwayMessage{{Ident: "18", Usage: "both"}}, msg.Value.Runways)
	assert.Equal(t, at, msg.Value.AssignedAt)
}

type staticReports []string

func (s staticReports) FetchReports(context.Context) ([]string, error) { return s, nil }

// TestPipelinePublishes runs a full cycle with the Kafka writer as publisher.
func TestPipelinePublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	airports := domain.Airports{}
	mh := airports.Get("ENMH")
	require.NoError(t, mh.AddRunway(domain.NewRunway(
		domain.NewRunwayDirection("17", 170), domain.NewRunwayDirection("35", 350))))
	va := airports.Get("ENVA")
	require.NoError(t, va.AddRunway(domain.NewRunway(
		domain.NewRunwayDirection("09", 94), domain.NewRunwayDirection("27", 274))))

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.February, 8, 9, 20, 0, 0, time.UTC))
	registry := policy.NewRegistry(policy.Options{Clock: clock})
	p := pipeline.New(
		staticReports{"ENMH 220550Z AUTO 30009KT 250V330 9999 BKN028/// OVC049/// 07/02 Q1016"},
		registry,
		pipeline.Options{
			Publisher:      writer,
			DefaultRunways: map[string]int{"ENVA": 27},
			Clock:          clock,
		},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	res, err := p.Run(ctx, airports)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)

	consumer := newConsumer(t, broker)
	got := map[string]publishedMessage{}
	for len(got) < 2 {
		msg := readPublished(ctx, t, consumer)
		got[msg.Key] = msg
	}

	assert.Equal(t, "metar", got["ENMH"].Headers["source"])
	assert.Equal(t, []kafka.RunwayMessage{{Ident: "35", Usage: "both"}}, got["ENMH"].Value.Runways)
	assert.Equal(t, "default", got["ENVA"].Headers["source"])
	assert.Equal(t, []kafka.RunwayMessage{{Ident: "27", Usage: "both"}}, got["ENVA"].Value.Runways)
}

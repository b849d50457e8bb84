package clients

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/threadflow/internal/models"
)

// Kafka topic flattened comment records get published to
const KafkaTopic = "comment-records"

var producer *kafka.Producer

// InitKafka initializes the Kafka producer
func InitKafka() error {
	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		broker = "localhost:29092"
	}

	slog.Info("[KafkaClient] Connecting to Kafka", slog.String("broker", broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
	})
	if err != nil {
		return err
	}
	producer = p
	slog.Info("[KafkaClient] Kafka Producer initialized")
	return nil
}

func CloseKafka() {
	if producer != nil {
		producer.Flush(1)
		producer.Close()
		slog.Info("[KafkaClient] Kafka producer shut down")
	}
}

// PublishCommentBatch sends a batch of flattened comment records to Kafka,
// keyed by comment id.
func PublishCommentBatch(linkID string, records []models.CommentRecord) error {
	topic := KafkaTopic

	for _, record := range records {
		jsonData, err := json.Marshal(record)
		if err != nil {
			return err
		}

		err = producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(record.ID),
			Value:          jsonData,
		}, nil)
		if err != nil {
			return err
		}
	}

	slog.Info("[KafkaClient] Published comment batch to Kafka",
		slog.String("link_id", linkID),
		slog.Int("count", len(records)))
	return nil
}

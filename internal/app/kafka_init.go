package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/messaging/kafka"
)

// parseBrokerList разбирает PEDIX_KAFKA_BROKERS: запятая как разделитель,
// пробелы и пустые элементы игнорируются.
func parseBrokerList(brokers string) []string {
	chunks := strings.Split(brokers, ",")
	list := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		broker := strings.TrimSpace(chunk)
		if broker == "" {
			continue
		}
		list = append(list, broker)
	}
	return list
}

// initKafkaProducer инициализирует producer событий педидо.
// Пустой список brokers отключает публикацию: сервис работает без Kafka,
// события остаются в outbox со статусом pending.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := parseBrokerList(brokers)
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// dlq-reprocess перечитывает pedix.dlq и возвращает события педидо в основной
// topic. Записи, в которых не удаётся восстановить валидный PedidoEvent,
// пропускаются с причиной: реплеить мусор в основной поток нельзя.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

// Причины пропуска DLQ-записей.
const (
	skipReasonUnrecognized = "unrecognized_payload"
	skipReasonInvalidEvent = "invalid_pedido_event"
	skipReasonFiltered     = "pedido_filter"
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	pedidoID    int64
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// replayCandidate — восстановленное из DLQ событие педидо, готовое к реплею.
// Ключом всегда служит идентификатор педидо: реплей сохраняет порядок
// событий одного заказа.
type replayCandidate struct {
	topic string
	value []byte
	event *kafka.PedidoEvent
}

func (c replayCandidate) key() string {
	return strconv.FormatInt(c.event.PedidoID, 10)
}

// skipError помечает DLQ-запись, которую нельзя реплеить.
type skipError struct {
	reason string
	cause  error
}

func (e *skipError) Error() string {
	if e.cause == nil {
		return e.reason
	}
	return fmt.Sprintf("%s: %v", e.reason, e.cause)
}

// outboxDLQEnvelope — конверт, который outbox worker публикует в DLQ:
// внешний слой от OutboxTopicPublisher, payload от publishToDLQ.
type outboxDLQEnvelope struct {
	ID          string `json:"id"`
	AggregateID string `json:"aggregate_id"`
	Payload     struct {
		EventType    string          `json:"event_type"`
		Payload      json.RawMessage `json:"payload"`
		PublishError string          `json:"publish_error"`
	} `json:"payload"`
}

// replayEnvelope повторяет формат OutboxTopicPublisher: после реплея
// сообщение неотличимо от штатной публикации из outbox.
type replayEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionConsumerSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

type replayProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

type saramaConsumerAdapter struct {
	consumer sarama.Consumer
}

func (a saramaConsumerAdapter) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	pc, err := a.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

func (a saramaConsumerAdapter) Close() error {
	if a.consumer == nil {
		return nil
	}
	return a.consumer.Close()
}

var newReplayDependencies = func(cfg config) (offsetClient, partitionConsumerSource, replayProducer, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create kafka client: %w", err)
	}

	rawConsumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	consumer := saramaConsumerAdapter{consumer: rawConsumer}

	if !cfg.execute {
		return client, consumer, nil, nil
	}

	// Реплей публикует теми же гарантиями, что и основной producer.
	producer, err := sarama.NewSyncProducer(cfg.brokers, kafka.NewSyncProducerConfig())
	if err != nil {
		_ = consumer.Close()
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return client, consumer, producer, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig()
	if err != nil {
		fail("%v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func readConfig() (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	flag.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: PEDIX_KAFKA_BROKERS)")
	flag.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	flag.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicPedidoEvents, "target topic for replay")
	flag.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of messages to scan/replay")
	flag.Int64Var(&cfg.pedidoID, "pedido", 0, "replay only events of this pedido id (0 = all)")
	flag.BoolVar(&cfg.execute, "execute", false, "execute replay; default is dry-run")
	flag.BoolVar(&cfg.fromNewest, "from-newest", false, "scan latest messages first (bounded by limit)")
	flag.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	flag.Parse()

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("PEDIX_KAFKA_BROKERS")
	}

	cfg.brokers = parseBrokers(brokersRaw)
	if len(cfg.brokers) == 0 {
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or PEDIX_KAFKA_BROKERS)")
	}
	if strings.TrimSpace(cfg.sourceTopic) == "" {
		return config{}, fmt.Errorf("source-topic is required")
	}
	if strings.TrimSpace(cfg.targetTopic) == "" {
		return config{}, fmt.Errorf("target-topic is required")
	}
	if cfg.limit <= 0 {
		return config{}, fmt.Errorf("limit must be > 0")
	}
	if cfg.pedidoID < 0 {
		return config{}, fmt.Errorf("pedido id must be >= 0")
	}
	if cfg.idleTimeout <= 0 {
		return config{}, fmt.Errorf("idle-timeout must be > 0")
	}

	return cfg, nil
}

func parseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		broker := strings.TrimSpace(chunk)
		if broker == "" {
			continue
		}
		brokers = append(brokers, broker)
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	log.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
		"limit":        cfg.limit,
		"pedido":       cfg.pedidoID,
		"execute":      cfg.execute,
		"from_newest":  cfg.fromNewest,
	}).Info("starting dlq replay")

	client, consumer, producer, err := newReplayDependencies(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
		if consumer != nil {
			_ = consumer.Close()
		}
		if client != nil {
			_ = client.Close()
		}
	}()

	return runReplay(ctx, cfg, client, consumer, producer)
}

func runReplay(ctx context.Context, cfg config, client offsetClient, consumer partitionConsumerSource, producer replayProducer) error {
	if client == nil || consumer == nil {
		return fmt.Errorf("kafka client and consumer are required")
	}
	if cfg.execute && producer == nil {
		return fmt.Errorf("producer is required in execute mode")
	}

	partitions, err := client.Partitions(cfg.sourceTopic)
	if err != nil {
		return fmt.Errorf("get partitions for topic %s: %w", cfg.sourceTopic, err)
	}
	if len(partitions) == 0 {
		log.WithField("topic", cfg.sourceTopic).Warn("source topic has no partitions")
		return nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	total := newReplayStats()
	for _, partition := range partitions {
		if total.processed >= cfg.limit {
			break
		}

		remaining := cfg.limit - total.processed
		stats, err := processPartition(ctx, consumer, client, producer, cfg, partition, remaining)
		if err != nil {
			return err
		}
		total.merge(stats)
	}

	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}

	fields := log.Fields{
		"mode":      mode,
		"processed": total.processed,
		"replayed":  total.replayed,
		"skipped":   total.skipped,
	}
	for eventType, count := range total.byEventType {
		fields["replayed_"+string(eventType)] = count
	}
	for reason, count := range total.skipReasons {
		fields["skipped_"+reason] = count
	}
	log.WithFields(fields).Info("dlq replay finished")

	return nil
}

// replayStats копит итоги реплея с разбивкой по типам событий педидо
// и причинам пропуска.
type replayStats struct {
	processed   int
	replayed    int
	skipped     int
	byEventType map[kafka.EventType]int
	skipReasons map[string]int
}

func newReplayStats() replayStats {
	return replayStats{
		byEventType: make(map[kafka.EventType]int),
		skipReasons: make(map[string]int),
	}
}

func (s *replayStats) markReplayed(eventType kafka.EventType) {
	s.processed++
	s.replayed++
	s.byEventType[eventType]++
}

func (s *replayStats) markSkipped(reason string) {
	s.processed++
	s.skipped++
	s.skipReasons[reason]++
}

func (s *replayStats) merge(other replayStats) {
	s.processed += other.processed
	s.replayed += other.replayed
	s.skipped += other.skipped
	for eventType, count := range other.byEventType {
		s.byEventType[eventType] += count
	}
	for reason, count := range other.skipReasons {
		s.skipReasons[reason] += count
	}
}

func processPartition(
	ctx context.Context,
	consumer partitionConsumerSource,
	client offsetClient,
	producer replayProducer,
	cfg config,
	partition int32,
	limit int,
) (replayStats, error) {
	stats := newReplayStats()
	if limit <= 0 {
		return stats, nil
	}

	oldest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	startOffset := oldest
	if cfg.fromNewest {
		startOffset = newest - int64(limit)
		if startOffset < oldest {
			startOffset = oldest
		}
	}

	partitionConsumer, err := consumer.ConsumePartition(cfg.sourceTopic, partition, startOffset)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = partitionConsumer.Close() }()

	endOffset := newest
	idleTimer := time.NewTimer(cfg.idleTimeout)
	defer idleTimer.Stop()

	for stats.processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case err := <-partitionConsumer.Errors():
			if err != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, err)
			}
		case msg, ok := <-partitionConsumer.Messages():
			if !ok || msg == nil {
				return stats, nil
			}

			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(cfg.idleTimeout)

			if msg.Offset >= endOffset {
				return stats, nil
			}

			candidate, err := extractReplayCandidate(msg, cfg.targetTopic)
			if err != nil {
				reason := skipReasonUnrecognized
				var skip *skipError
				if errors.As(err, &skip) {
					reason = skip.reason
				}
				stats.markSkipped(reason)
				log.WithError(err).WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Warn("skip dlq message")
				continue
			}

			if cfg.pedidoID != 0 && candidate.event.PedidoID != cfg.pedidoID {
				stats.markSkipped(skipReasonFiltered)
				continue
			}

			if cfg.execute {
				if err := publishReplay(producer, candidate); err != nil {
					return stats, fmt.Errorf("publish replay message: %w", err)
				}
			} else {
				log.WithFields(log.Fields{
					"partition":    msg.Partition,
					"offset":       msg.Offset,
					"target_topic": candidate.topic,
					"pedido_id":    candidate.event.PedidoID,
					"event_type":   candidate.event.EventType,
				}).Info("dlq replay candidate")
			}
			stats.markReplayed(candidate.event.EventType)

			if msg.Offset+1 >= endOffset {
				return stats, nil
			}
		case <-idleTimer.C:
			return stats, nil
		}
	}

	return stats, nil
}

func publishReplay(producer replayProducer, candidate replayCandidate) error {
	if producer == nil {
		return fmt.Errorf("producer is nil")
	}

	producerMessage := &sarama.ProducerMessage{
		Topic:     candidate.topic,
		Key:       sarama.StringEncoder(candidate.key()),
		Value:     sarama.ByteEncoder(candidate.value),
		Timestamp: time.Now().UTC(),
	}

	_, _, err := producer.SendMessage(producerMessage)
	return err
}

// extractReplayCandidate восстанавливает событие педидо из DLQ-записи.
// Поддерживаются три формата: запись consumer-а (kafka.DLQRecord),
// конверт outbox worker-а и голое событие педидо.
func extractReplayCandidate(msg *sarama.ConsumerMessage, defaultTopic string) (replayCandidate, error) {
	var record kafka.DLQRecord
	if err := json.Unmarshal(msg.Value, &record); err == nil && record.OriginalValue != "" {
		event, err := decodePedidoEvent([]byte(record.OriginalValue))
		if err != nil {
			return replayCandidate{}, err
		}
		targetTopic := strings.TrimSpace(record.OriginalTopic)
		if targetTopic == "" {
			targetTopic = defaultTopic
		}
		return replayCandidate{
			topic: targetTopic,
			value: []byte(record.OriginalValue),
			event: event,
		}, nil
	}

	var envelope outboxDLQEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err == nil && len(envelope.Payload.Payload) > 0 {
		event, err := decodePedidoEvent(envelope.Payload.Payload)
		if err != nil {
			return replayCandidate{}, err
		}

		replay := replayEnvelope{
			ID:            envelope.ID,
			AggregateType: "pedido",
			AggregateID:   strconv.FormatInt(event.PedidoID, 10),
			EventType:     string(event.EventType),
			Payload:       envelope.Payload.Payload,
			PublishedAt:   time.Now().UTC(),
		}
		encoded, err := json.Marshal(replay)
		if err != nil {
			return replayCandidate{}, &skipError{reason: skipReasonUnrecognized, cause: err}
		}
		return replayCandidate{
			topic: defaultTopic,
			value: encoded,
			event: event,
		}, nil
	}

	// Голое событие педидо: кто-то положил его в DLQ без конверта.
	if event, err := decodePedidoEvent(msg.Value); err == nil {
		return replayCandidate{
			topic: defaultTopic,
			value: msg.Value,
			event: event,
		}, nil
	}

	return replayCandidate{}, &skipError{reason: skipReasonUnrecognized, cause: fmt.Errorf("dlq payload does not contain a pedido event")}
}

// decodePedidoEvent разбирает и валидирует событие педидо.
func decodePedidoEvent(data []byte) (*kafka.PedidoEvent, error) {
	var event kafka.PedidoEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, &skipError{reason: skipReasonInvalidEvent, cause: err}
	}
	if err := event.Validate(); err != nil {
		return nil, &skipError{reason: skipReasonInvalidEvent, cause: err}
	}
	return &event, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

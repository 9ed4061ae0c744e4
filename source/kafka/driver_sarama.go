package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"svgjsx/internal/frame"
	"svgjsx/internal/logging"
)

type recordID struct {
	topic     string
	partition int32
	offset    int64
}

type SaramaDriver struct {
	cfg   Config
	cl    sarama.Client
	group sarama.ConsumerGroup
	bp    *Controller
	cp    *committer

	mu      sync.Mutex
	pending map[recordID]func()

	ackCh chan recordID
}

func (d *SaramaDriver) Configure(config Config) error {
	d.init(config)

	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.ClientID = "svgjsx"
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Enable = false
	if config.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	switch config.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func (d *SaramaDriver) init(config Config) {
	d.cfg = config
	d.pending = make(map[recordID]func())
	d.bp = NewController(config.BackPressure.Capacity)
	d.cp = newCommitter(config.Checkpoint.CommitInt)
	d.ackCh = make(chan recordID, int(config.BackPressure.Capacity))
}

func (d *SaramaDriver) Run(ctx context.Context, emit EmitFunc) error {
	handler := &groupHandler{driver: d, emit: emit}
	go d.logErrors(ctx)

	for {
		if err := d.group.Consume(ctx, d.cfg.Topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *SaramaDriver) logErrors(ctx context.Context) {
	log := logging.For("kafka-source")
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-d.group.Errors():
			if !ok {
				return
			}
			log.Warn("consumer group error", "err", err)
		}
	}
}

func (d *SaramaDriver) Close() error {
	if d.group != nil {
		_ = d.group.Close()
	}
	if d.cl != nil {
		return d.cl.Close()
	}
	return nil
}

// OnAck is called by the runner once a sink has handled a frame. It never
// blocks; if the ack queue is full the oldest queued ack is dropped.
func (d *SaramaDriver) OnAck(ack *frame.Ack) {
	if ack == nil {
		return
	}
	k := ack.Checkpoint.GetKafka()
	if k == nil {
		return
	}
	rec := recordID{k.Topic, k.Partition, k.Offset}

	select {
	case d.ackCh <- rec:
	default:
		select {
		case <-d.ackCh:
		default:
		}
		select {
		case d.ackCh <- rec:
		default:
			logging.For("kafka-source").Warn("ack channel full; dropping ack",
				"topic", rec.topic, "partition", rec.partition, "offset", rec.offset)
		}
	}
}

// resolve runs the pending mark callback for rec, if any.
func (d *SaramaDriver) resolve(rec recordID) {
	d.mu.Lock()
	cb, ok := d.pending[rec]
	if ok {
		delete(d.pending, rec)
	}
	d.mu.Unlock()
	if ok {
		cb()
		d.bp.Release(1)
		logging.For("kafka-source").Debug("ack released",
			"topic", rec.topic, "partition", rec.partition, "offset", rec.offset)
	}
}

func (d *SaramaDriver) toFrame(msg *sarama.ConsumerMessage) *frame.Frame {
	f := &frame.Frame{
		Key:   msg.Key,
		Value: msg.Value,
		Ts:    msg.Timestamp,
		Checkpoint: &frame.Checkpoint{
			Kafka: &frame.KafkaOffset{Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset},
		},
	}
	if len(msg.Headers) > 0 {
		f.Headers = make(map[string][]byte, len(msg.Headers))
		for _, h := range msg.Headers {
			f.Headers[string(h.Key)] = h.Value
		}
		if v, ok := f.Headers[d.cfg.ModeHeader]; ok {
			f.Headers[frame.ModeHeader] = v
		}
	}
	return f
}

type groupHandler struct {
	driver *SaramaDriver
	emit   EmitFunc
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	h.driver.mu.Lock()
	dropped := len(h.driver.pending)
	h.driver.pending = make(map[recordID]func())
	h.driver.mu.Unlock()

	h.driver.bp.Release(int64(dropped))
	sess.Commit()
	if dropped > 0 {
		logging.For("kafka-source").Info("rebalance cleared pending acks", "count", dropped)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	d := h.driver
	mark := func(msg *sarama.ConsumerMessage) {
		sess.MarkMessage(msg, "")
		if d.cp.due() {
			sess.Commit()
		}
	}

	for {
		if !d.bp.TryAcquire(1) {
			select {
			case rec := <-d.ackCh:
				d.resolve(rec)
			case <-time.After(d.cfg.BackPressure.CheckInt):
			case <-sess.Context().Done():
				return nil
			}
			continue
		}

		select {
		case <-sess.Context().Done():
			d.bp.Release(1)
			return nil

		case rec := <-d.ackCh:
			d.bp.Release(1)
			d.resolve(rec)

		case msg, ok := <-claim.Messages():
			if !ok {
				d.bp.Release(1)
				return nil
			}
			// register before emitting: a sink may ack synchronously
			rec := recordID{msg.Topic, msg.Partition, msg.Offset}
			if d.cfg.CommitMode == CommitE2E {
				d.mu.Lock()
				d.pending[rec] = func() { mark(msg) }
				d.mu.Unlock()
			}
			if err := h.emit(d.toFrame(msg)); err != nil {
				d.mu.Lock()
				delete(d.pending, rec)
				d.mu.Unlock()
				d.bp.Release(1)
				return err
			}
			if d.cfg.CommitMode == CommitAuto {
				mark(msg)
				d.bp.Release(1)
			}
		}
	}
}

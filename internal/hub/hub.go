package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"aura/internal/domain"
)

type Config struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	CallTimeout time.Duration
}

// Hub bridges the assistant to the home-automation broker: it keeps the
// entity inventory current from retained device state topics and dispatches
// service calls, correlating acknowledgements by request id.
type Hub struct {
	cfg       Config
	client    paho.Client
	inventory *Inventory
	logger    *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]chan domain.CallResult
}

func New(cfg Config, inventory *Inventory, logger *slog.Logger) *Hub {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Hub{
		cfg:       cfg,
		inventory: inventory,
		logger:    logger,
		pending:   make(map[string]chan domain.CallResult),
	}
}

func (h *Hub) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(h.cfg.BrokerURL).
		SetClientID(h.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	if h.cfg.Username != "" {
		opts.SetUsername(h.cfg.Username)
		opts.SetPassword(h.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		h.logger.Error("hub connection lost", "error", err)
	})

	h.client = paho.NewClient(opts)
	if token := h.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	if err := h.subscribeHandlers(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		h.client.Disconnect(100)
	}()

	return nil
}

func (h *Hub) subscribeHandlers() error {
	if token := h.client.Subscribe(TopicDeviceStates(h.cfg.TopicPrefix), 1, h.handleState); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	if token := h.client.Subscribe(TopicCallResults(h.cfg.TopicPrefix), 1, h.handleCallResult); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (h *Hub) handleState(_ paho.Client, msg paho.Message) {
	entityID, err := ParseEntityID(msg.Topic(), h.cfg.TopicPrefix)
	if err != nil {
		h.logger.Warn("skip invalid state topic", "topic", msg.Topic(), "error", err)
		return
	}

	var change domain.StateChange
	if err := json.Unmarshal(msg.Payload(), &change); err != nil {
		h.logger.Warn("invalid state payload", "entity_id", entityID, "error", err)
		return
	}
	if change.EntityID == "" {
		change.EntityID = entityID
	}
	if change.EntityID != entityID {
		h.logger.Warn("state payload entity mismatch", "topic_entity", entityID, "payload_entity", change.EntityID)
		return
	}
	h.inventory.SetState(change)
}

func (h *Hub) handleCallResult(_ paho.Client, msg paho.Message) {
	requestID := ParseRequestID(msg.Topic())
	if requestID == "" {
		return
	}

	var result domain.CallResult
	if err := json.Unmarshal(msg.Payload(), &result); err != nil {
		h.logger.Warn("invalid call result", "topic", msg.Topic(), "error", err)
		return
	}
	if result.RequestID == "" {
		result.RequestID = requestID
	}

	h.pendingMu.Lock()
	ch, ok := h.pending[result.RequestID]
	h.pendingMu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- result:
	default:
	}
}

// CallService publishes a device action and waits for the broker-side
// acknowledgement or the configured timeout.
func (h *Hub) CallService(ctx context.Context, action domain.Action) (domain.CallResult, error) {
	requestID := uuid.NewString()
	body, err := json.Marshal(domain.ServiceCall{
		RequestID: requestID,
		Action:    action,
	})
	if err != nil {
		return domain.CallResult{}, err
	}

	resultCh := make(chan domain.CallResult, 1)
	h.pendingMu.Lock()
	h.pending[requestID] = resultCh
	h.pendingMu.Unlock()
	defer func() {
		h.pendingMu.Lock()
		delete(h.pending, requestID)
		h.pendingMu.Unlock()
	}()

	topic := TopicCall(h.cfg.TopicPrefix, requestID)
	if token := h.client.Publish(topic, 1, false, body); token.Wait() && token.Error() != nil {
		return domain.CallResult{}, token.Error()
	}

	select {
	case <-ctx.Done():
		return domain.CallResult{}, ctx.Err()
	case result := <-resultCh:
		if !result.OK {
			if result.Error == "" {
				result.Error = "service call failed"
			}
			return result, fmt.Errorf("%s", result.Error)
		}
		return result, nil
	case <-time.After(h.cfg.CallTimeout):
		return domain.CallResult{}, fmt.Errorf("service call timeout")
	}
}

// EntityState exposes the inventory's view of one device.
func (h *Hub) EntityState(entityID string) (string, bool) {
	return h.inventory.State(entityID)
}

// Entities exposes the current inventory snapshot.
func (h *Hub) Entities() []domain.Entity {
	return h.inventory.List()
}

// SnapshotHash identifies the current inventory for generation tracking.
func (h *Hub) SnapshotHash() string {
	return h.inventory.SnapshotHash()
}

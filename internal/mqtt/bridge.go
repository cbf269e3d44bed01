package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/models"
	"bmrbridge/internal/service"
)

const commandTimeout = 30 * time.Second

// Bridge publishes entity state to the broker and executes commands
// received on the */set topics. Discovery configs are retained so Home
// Assistant picks the entities up on restart.
type Bridge struct {
	client      *Client
	services    *service.Service
	cfg         config.MQTTConfig
	controller  config.ControllerConfig
	circuits    []config.CircuitConfig
	topics      topics
	log         *logger.Logger
	unsubscribe func()
}

func NewBridge(
	services *service.Service,
	cfg config.MQTTConfig,
	controller config.ControllerConfig,
	circuits []config.CircuitConfig,
	log *logger.Logger,
) *Bridge {
	return &Bridge{
		services:   services,
		cfg:        cfg,
		controller: controller,
		circuits:   circuits,
		topics:     newTopics(cfg),
		log:        log,
	}
}

// Start connects to the broker, announces the entities and begins
// mirroring snapshots. The snapshot subscription keeps the poller
// running for as long as the bridge is up.
func (b *Bridge) Start() error {
	client, err := Connect(b.cfg, b.log)
	if err != nil {
		return err
	}
	b.client = client

	if err := b.publishDiscovery(); err != nil {
		return fmt.Errorf("publish discovery: %w", err)
	}
	if err := b.subscribeCommands(); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}

	b.unsubscribe = b.services.Monitoring.Subscribe(func(*models.ControllerSnapshot) {
		b.publishState()
	})
	// mirror the current snapshot right away if one exists
	if _, err := b.services.Monitoring.Snapshot(); err == nil {
		b.publishState()
	}
	return nil
}

// Stop detaches from the poller and disconnects cleanly.
func (b *Bridge) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	if b.client != nil {
		b.client.Close()
	}
}

func (b *Bridge) availableModes() []models.HVACMode {
	if b.controller.EnableCooling {
		return []models.HVACMode{models.ModeAuto, models.ModeHeatCool, models.ModeOff}
	}
	return []models.HVACMode{models.ModeAuto, models.ModeHeat, models.ModeOff}
}

func (b *Bridge) publishDiscovery() error {
	dev := deviceFor(b.topics.node, b.controller.Name)
	modes := b.availableModes()

	configs := map[string]any{
		b.topics.configTopic("binary_sensor", "hdo"): hdoDiscovery(b.topics, dev),
		b.topics.configTopic("switch", "away"):       switchDiscovery(b.topics, dev, "away"),
		b.topics.configTopic("switch", "power"):      switchDiscovery(b.topics, dev, "power"),
	}
	for _, cc := range b.circuits {
		object := fmt.Sprintf("circuit_%d", cc.ID)
		configs[b.topics.configTopic("climate", object)] = climateDiscovery(b.topics, dev, cc, modes)
		configs[b.topics.configTopic("sensor", object+"_temperature")] = temperatureSensorDiscovery(b.topics, dev, cc)
		configs[b.topics.configTopic("sensor", object+"_target")] = targetSensorDiscovery(b.topics, dev, cc)
	}

	for topic, cfg := range configs {
		payload, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		if err := b.client.Publish(topic, true, payload); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) subscribeCommands() error {
	circuitWildcard := b.cfg.TopicPrefix + "/circuits/+/+/set"
	if err := b.client.Subscribe(circuitWildcard, b.handleCircuitCommand); err != nil {
		return err
	}
	switchWildcard := b.cfg.TopicPrefix + "/switches/+/set"
	return b.client.Subscribe(switchWildcard, b.handleSwitchCommand)
}

// handleCircuitCommand executes <prefix>/circuits/<id>/<leaf>/set.
func (b *Bridge) handleCircuitCommand(topic string, payload []byte) {
	rest := strings.TrimPrefix(topic, b.cfg.TopicPrefix+"/circuits/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" {
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return
	}
	value := strings.TrimSpace(string(payload))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch parts[1] {
	case "mode":
		err = b.services.Climate.SetMode(ctx, id, models.HVACMode(value))
	case "preset":
		err = b.services.Climate.SetPreset(ctx, id, models.Preset(value))
	case "target_temperature":
		var temp float64
		if temp, err = strconv.ParseFloat(value, 64); err == nil {
			err = b.services.Climate.SetTargetTemperature(ctx, id, temp)
		}
	default:
		return
	}
	if err != nil && b.log != nil {
		b.log.Warnw("mqtt_circuit_command_failed", "topic", topic, "payload", value, "err", err)
	}
}

// handleSwitchCommand executes <prefix>/switches/<name>/set with ON/OFF.
func (b *Bridge) handleSwitchCommand(topic string, payload []byte) {
	rest := strings.TrimPrefix(topic, b.cfg.TopicPrefix+"/switches/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "set" {
		return
	}
	on := strings.EqualFold(strings.TrimSpace(string(payload)), "ON")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch parts[0] {
	case "away":
		err = b.services.Switches.SetAway(ctx, on)
	case "power":
		err = b.services.Switches.SetPower(ctx, on)
	default:
		return
	}
	if err != nil && b.log != nil {
		b.log.Warnw("mqtt_switch_command_failed", "topic", topic, "on", on, "err", err)
	}
}

// publishState mirrors the latest snapshot to the state topics.
func (b *Bridge) publishState() {
	snap, err := b.services.Monitoring.Snapshot()
	if err != nil {
		return
	}

	for _, cc := range b.circuits {
		state, err := b.services.Climate.State(cc.ID)
		if err != nil {
			// circuit dropped this cycle, keep the last retained values
			continue
		}
		b.publishString(b.topics.circuit(cc.ID, "mode"), string(state.Mode))
		b.publishString(b.topics.circuit(cc.ID, "action"), string(state.Action))
		b.publishString(b.topics.circuit(cc.ID, "preset"), string(state.Preset))
		b.publishTemperature(b.topics.circuit(cc.ID, "current_temperature"), state.CurrentTemperature)
		b.publishTemperature(b.topics.circuit(cc.ID, "target_temperature"), state.TargetTemperature)

		if sensors, err := b.services.Monitoring.CircuitSensors(cc.ID); err == nil {
			if attrs, err := json.Marshal(sensors.Attributes); err == nil {
				b.publishBytes(b.topics.circuit(cc.ID, "attributes"), attrs)
			}
		}
	}

	b.publishString(b.topics.hdo(), onOff(snap.HDO))
	if away, err := b.services.Switches.Away(); err == nil {
		b.publishString(b.topics.switchState("away"), onOff(away.On))
	}
	if power, err := b.services.Switches.Power(); err == nil {
		b.publishString(b.topics.switchState("power"), onOff(power.On))
	}
}

func (b *Bridge) publishString(topic, value string) {
	b.publishBytes(topic, []byte(value))
}

func (b *Bridge) publishBytes(topic string, payload []byte) {
	if err := b.client.Publish(topic, true, payload); err != nil && b.log != nil {
		b.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
	}
}

func (b *Bridge) publishTemperature(topic string, value *float64) {
	if value == nil {
		return
	}
	b.publishString(topic, strconv.FormatFloat(*value, 'f', 1, 64))
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

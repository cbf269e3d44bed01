package mqtt

import (
	"fmt"

	"bmrbridge/internal/config"
	"bmrbridge/internal/models"
)

// Home Assistant MQTT discovery payloads. Retained configs published at
// startup let Home Assistant create one climate entity per circuit, two
// temperature sensors per circuit, the HDO binary sensor and the two
// controller switches without any manual YAML.

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Name         string   `json:"name"`
}

type climateConfig struct {
	Name                    string     `json:"name"`
	UniqueID                string     `json:"unique_id"`
	AvailabilityTopic       string     `json:"availability_topic"`
	Modes                   []string   `json:"modes"`
	ModeStateTopic          string     `json:"mode_state_topic"`
	ModeCommandTopic        string     `json:"mode_command_topic"`
	ActionTopic             string     `json:"action_topic"`
	CurrentTemperatureTopic string     `json:"current_temperature_topic"`
	TemperatureStateTopic   string     `json:"temperature_state_topic"`
	TemperatureCommandTopic string     `json:"temperature_command_topic"`
	PresetModes             []string   `json:"preset_modes"`
	PresetModeStateTopic    string     `json:"preset_mode_state_topic"`
	PresetModeCommandTopic  string     `json:"preset_mode_command_topic"`
	MinTemp                 float64    `json:"min_temp"`
	MaxTemp                 float64    `json:"max_temp"`
	TempStep                float64    `json:"temp_step"`
	Device                  deviceInfo `json:"device"`
}

type sensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	AvailabilityTopic string     `json:"availability_topic"`
	StateTopic        string     `json:"state_topic"`
	DeviceClass       string     `json:"device_class,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	JSONAttributes    string     `json:"json_attributes_topic,omitempty"`
	Device            deviceInfo `json:"device"`
}

type binarySensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	AvailabilityTopic string     `json:"availability_topic"`
	StateTopic        string     `json:"state_topic"`
	DeviceClass       string     `json:"device_class,omitempty"`
	Device            deviceInfo `json:"device"`
}

type switchConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	AvailabilityTopic string     `json:"availability_topic"`
	StateTopic        string     `json:"state_topic"`
	CommandTopic      string     `json:"command_topic"`
	PayloadOn         string     `json:"payload_on"`
	PayloadOff        string     `json:"payload_off"`
	Device            deviceInfo `json:"device"`
}

// topics builds every state, command and discovery topic from the two
// configured prefixes.
type topics struct {
	prefix    string
	discovery string
	node      string
}

func newTopics(cfg config.MQTTConfig) topics {
	return topics{prefix: cfg.TopicPrefix, discovery: cfg.DiscoveryPrefix, node: cfg.ClientID}
}

func (t topics) status() string { return t.prefix + "/status" }
func (t topics) hdo() string    { return t.prefix + "/hdo" }

func (t topics) circuit(id int, leaf string) string {
	return fmt.Sprintf("%s/circuits/%d/%s", t.prefix, id, leaf)
}

func (t topics) circuitCommand(id int, leaf string) string {
	return t.circuit(id, leaf) + "/set"
}

func (t topics) switchState(name string) string {
	return fmt.Sprintf("%s/switches/%s", t.prefix, name)
}

func (t topics) switchCommand(name string) string {
	return t.switchState(name) + "/set"
}

func (t topics) configTopic(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.discovery, component, t.node, objectID)
}

func deviceFor(uniqueID, name string) deviceInfo {
	return deviceInfo{
		Identifiers:  []string{uniqueID},
		Manufacturer: "BMR",
		Model:        "HC64",
		Name:         name,
	}
}

func modeStrings(modes []models.HVACMode) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

func climateDiscovery(t topics, dev deviceInfo, cc config.CircuitConfig, modes []models.HVACMode) climateConfig {
	return climateConfig{
		Name:                    cc.Name,
		UniqueID:                fmt.Sprintf("%s_circuit_%d_climate", t.node, cc.ID),
		AvailabilityTopic:       t.status(),
		Modes:                   modeStrings(modes),
		ModeStateTopic:          t.circuit(cc.ID, "mode"),
		ModeCommandTopic:        t.circuitCommand(cc.ID, "mode"),
		ActionTopic:             t.circuit(cc.ID, "action"),
		CurrentTemperatureTopic: t.circuit(cc.ID, "current_temperature"),
		TemperatureStateTopic:   t.circuit(cc.ID, "target_temperature"),
		TemperatureCommandTopic: t.circuitCommand(cc.ID, "target_temperature"),
		PresetModes:             []string{string(models.PresetNone), string(models.PresetAway)},
		PresetModeStateTopic:    t.circuit(cc.ID, "preset"),
		PresetModeCommandTopic:  t.circuitCommand(cc.ID, "preset"),
		MinTemp:                 cc.MinTemperature,
		MaxTemp:                 cc.MaxTemperature,
		TempStep:                0.5,
		Device:                  dev,
	}
}

func temperatureSensorDiscovery(t topics, dev deviceInfo, cc config.CircuitConfig) sensorConfig {
	return sensorConfig{
		Name:              cc.Name + " temperature",
		UniqueID:          fmt.Sprintf("%s_circuit_%d_temperature", t.node, cc.ID),
		AvailabilityTopic: t.status(),
		StateTopic:        t.circuit(cc.ID, "current_temperature"),
		DeviceClass:       "temperature",
		UnitOfMeasurement: "°C",
		JSONAttributes:    t.circuit(cc.ID, "attributes"),
		Device:            dev,
	}
}

func targetSensorDiscovery(t topics, dev deviceInfo, cc config.CircuitConfig) sensorConfig {
	return sensorConfig{
		Name:              cc.Name + " target temperature",
		UniqueID:          fmt.Sprintf("%s_circuit_%d_target", t.node, cc.ID),
		AvailabilityTopic: t.status(),
		StateTopic:        t.circuit(cc.ID, "target_temperature"),
		DeviceClass:       "temperature",
		UnitOfMeasurement: "°C",
		Device:            dev,
	}
}

func hdoDiscovery(t topics, dev deviceInfo) binarySensorConfig {
	return binarySensorConfig{
		Name:              "HDO",
		UniqueID:          t.node + "_hdo",
		AvailabilityTopic: t.status(),
		StateTopic:        t.hdo(),
		DeviceClass:       "power",
		Device:            dev,
	}
}

func switchDiscovery(t topics, dev deviceInfo, name string) switchConfig {
	return switchConfig{
		Name:              name,
		UniqueID:          t.node + "_" + name,
		AvailabilityTopic: t.status(),
		StateTopic:        t.switchState(name),
		CommandTopic:      t.switchCommand(name),
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            dev,
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bmrbridge/internal/models"
	"bmrbridge/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockClimate struct {
	state    models.ClimateState
	stateErr error
	setErr   error

	lastCircuitID   int
	lastMode        models.HVACMode
	lastPreset      models.Preset
	lastTemperature float64
}

func (m *mockClimate) State(circuitID int) (models.ClimateState, error) {
	m.lastCircuitID = circuitID
	return m.state, m.stateErr
}
func (m *mockClimate) SetMode(ctx context.Context, circuitID int, mode models.HVACMode) error {
	m.lastCircuitID = circuitID
	m.lastMode = mode
	return m.setErr
}
func (m *mockClimate) SetPreset(ctx context.Context, circuitID int, preset models.Preset) error {
	m.lastCircuitID = circuitID
	m.lastPreset = preset
	return m.setErr
}
func (m *mockClimate) SetTargetTemperature(ctx context.Context, circuitID int, temperature float64) error {
	m.lastCircuitID = circuitID
	m.lastTemperature = temperature
	return m.setErr
}

type mockSwitches struct {
	away     models.SwitchState
	power    models.SwitchState
	getErr   error
	setErr   error
	lastName string
	lastOn   bool
}

func (m *mockSwitches) Away() (models.SwitchState, error)  { return m.away, m.getErr }
func (m *mockSwitches) Power() (models.SwitchState, error) { return m.power, m.getErr }
func (m *mockSwitches) SetAway(ctx context.Context, on bool) error {
	m.lastName, m.lastOn = "away", on
	return m.setErr
}
func (m *mockSwitches) SetPower(ctx context.Context, on bool) error {
	m.lastName, m.lastOn = "power", on
	return m.setErr
}

type mockMonitoring struct {
	snap       *models.ControllerSnapshot
	snapErr    error
	sensors    models.CircuitSensors
	sensorsErr error

	refreshCalls int
	listeners    []func(*models.ControllerSnapshot)
}

func (m *mockMonitoring) Snapshot() (*models.ControllerSnapshot, error) {
	return m.snap, m.snapErr
}
func (m *mockMonitoring) CircuitSensors(circuitID int) (models.CircuitSensors, error) {
	return m.sensors, m.sensorsErr
}
func (m *mockMonitoring) Subscribe(fn func(*models.ControllerSnapshot)) func() {
	m.listeners = append(m.listeners, fn)
	return func() {}
}
func (m *mockMonitoring) RequestRefresh() { m.refreshCalls++ }

func (m *mockMonitoring) push(snap *models.ControllerSnapshot) {
	for _, fn := range m.listeners {
		fn(snap)
	}
}

type mockEventLog struct {
	resp     []models.BridgeEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.BridgeEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

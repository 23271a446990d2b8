package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/yok-tottii/performia-monitor/internal/audio"
	"github.com/yok-tottii/performia-monitor/internal/engine"
	"github.com/yok-tottii/performia-monitor/internal/meter"
)

// Levels provides the smoothed meter state
type Levels interface {
	Snapshot() meter.Snapshot
}

// Logger is the logging surface the handler needs
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Handler manages API endpoints
type Handler struct {
	engine   *engine.Engine
	levels   Levels
	log      Logger
	onChange func() // Called after a request changed engine state
}

// New creates a new API handler
func New(eng *engine.Engine, levels Levels, log Logger) *Handler {
	if log == nil {
		log = nopLogger{}
	}
	return &Handler{
		engine: eng,
		levels: levels,
		log:    log,
	}
}

// OnChange sets a callback run after a request changed the engine state,
// so other front ends (the tray) can refresh.
func (h *Handler) OnChange(fn func()) {
	h.onChange = fn
}

// RegisterRoutes registers all API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/levels", h.handleLevels)
	mux.HandleFunc("/api/device", h.handleDevice)
	mux.HandleFunc("/api/devices", h.handleDevices)
	mux.HandleFunc("/api/channels", h.handleChannels)
	mux.HandleFunc("/api/controls", h.handleControls)
	mux.HandleFunc("/api/power", h.handlePower)
	mux.HandleFunc("/api/refresh", h.handleRefresh)
}

// Status is the control state reported by GET /api/status
type Status struct {
	Power          bool    `json:"power"`
	Mode           string  `json:"mode"`
	InputGain      float64 `json:"inputGain"`    // UI value 0..200
	OutputVolume   float64 `json:"outputVolume"` // UI value 0..100
	TestFrequency  float64 `json:"testFrequency"`
	InputChannel   int     `json:"inputChannel"` // 0 when no channel is active
	State          string  `json:"state"`
	Running        bool    `json:"running"`
	FallbackBlocks uint64  `json:"fallbackBlocks"`
}

func (h *Handler) status() Status {
	e := h.engine
	return Status{
		Power:          e.Power(),
		Mode:           e.Mode().String(),
		InputGain:      uiValue(e.InputGain(), engine.InputGainScale),
		OutputVolume:   uiValue(e.OutputVolume(), engine.OutputVolumeScale),
		TestFrequency:  e.TestFrequency(),
		InputChannel:   e.SelectedInputChannel(),
		State:          e.State().String(),
		Running:        e.Running(),
		FallbackBlocks: e.FallbackBlocks(),
	}
}

// uiValue converts a linear factor back to its slider value
func uiValue(v float32, scale float64) float64 {
	return math.Round(float64(v)*scale*100) / 100
}

// handleStatus handles GET /api/status
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.status())
}

// handleLevels handles GET /api/levels
func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var snapshot meter.Snapshot
	if h.levels != nil {
		snapshot = h.levels.Snapshot()
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// DeviceRequest is the body of POST /api/device
type DeviceRequest struct {
	Name  string `json:"name"`
	Input bool   `json:"input"`
}

// DeviceResponse is the result of POST /api/device
type DeviceResponse struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Device engine.DeviceInfo `json:"device"`
}

// handleDevice handles GET and POST /api/device
func (h *Handler) handleDevice(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.engine.DeviceInfo())
	case http.MethodPost:
		h.selectDevice(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// selectDevice switches the input or output device
func (h *Handler) selectDevice(w http.ResponseWriter, r *http.Request) {
	var request DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := h.engine.SelectDevice(r.Context(), request.Name, request.Input)
	response := DeviceResponse{
		Status: status,
		Device: h.engine.DeviceInfo(),
	}
	h.changed()

	if err != nil {
		h.log.Warn("Device selection failed: %v", err)
		response.Error = err.Error()
		code := http.StatusInternalServerError
		if errors.Is(err, audio.ErrDeviceNotFound) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// Device represents an audio device
type Device struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	HostAPI         string `json:"hostApi"`
	Inputs          int    `json:"inputs"`
	Outputs         int    `json:"outputs"`
	IsDefaultInput  bool   `json:"isDefaultInput"`
	IsDefaultOutput bool   `json:"isDefaultOutput"`
}

// convertAudioDevices converts audio.Device slice to api.Device slice
func convertAudioDevices(audioDevices []audio.Device) []Device {
	devices := make([]Device, 0, len(audioDevices))
	for _, dev := range audioDevices {
		devices = append(devices, Device{
			ID:              dev.ID,
			Name:            dev.Name,
			HostAPI:         dev.HostAPI,
			Inputs:          dev.MaxInputChannels,
			Outputs:         dev.MaxOutputChannels,
			IsDefaultInput:  dev.IsDefaultInput,
			IsDefaultOutput: dev.IsDefaultOutput,
		})
	}
	return devices
}

// handleDevices handles GET /api/devices
func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	audioDevices, err := h.engine.ListDevices()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list audio devices: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": convertAudioDevices(audioDevices),
	})
}

// handleChannels handles GET /api/channels
func (h *Handler) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channels": h.engine.InputChannels(),
		"selected": h.engine.SelectedInputChannel(),
	})
}

// ControlsRequest is the body of PUT /api/controls. Absent fields are left
// unchanged.
type ControlsRequest struct {
	Mode          *string  `json:"mode"`
	InputGain     *float64 `json:"inputGain"`
	OutputVolume  *float64 `json:"outputVolume"`
	TestFrequency *float64 `json:"testFrequency"`
	InputChannel  *int     `json:"inputChannel"`
}

// validate checks every field before anything is applied
func (c ControlsRequest) validate() (engine.Mode, error) {
	var mode engine.Mode
	if c.Mode != nil {
		m, err := engine.ParseMode(*c.Mode)
		if err != nil {
			return mode, err
		}
		mode = m
	}
	if c.InputGain != nil && (*c.InputGain < 0 || *c.InputGain > engine.MaxInputGain) {
		return mode, fmt.Errorf("inputGain must be between 0 and %d", engine.MaxInputGain)
	}
	if c.OutputVolume != nil && (*c.OutputVolume < 0 || *c.OutputVolume > engine.MaxOutputVolume) {
		return mode, fmt.Errorf("outputVolume must be between 0 and %d", engine.MaxOutputVolume)
	}
	if c.TestFrequency != nil && (*c.TestFrequency < engine.MinTestFrequency || *c.TestFrequency > engine.MaxTestFrequency) {
		return mode, fmt.Errorf("testFrequency must be between %.0f and %.0f Hz", engine.MinTestFrequency, engine.MaxTestFrequency)
	}
	if c.InputChannel != nil && *c.InputChannel < 1 {
		return mode, errors.New("inputChannel must be 1 or greater")
	}
	return mode, nil
}

// handleControls handles GET and PUT /api/controls
func (h *Handler) handleControls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.status())
	case http.MethodPut:
		h.putControls(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// putControls applies a partial controls update
func (h *Handler) putControls(w http.ResponseWriter, r *http.Request) {
	var request ControlsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mode, err := request.validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e := h.engine
	if request.InputGain != nil {
		e.SetInputGain(*request.InputGain)
	}
	if request.OutputVolume != nil {
		e.SetOutputVolume(*request.OutputVolume)
	}
	if request.TestFrequency != nil {
		e.SetTestFrequency(*request.TestFrequency)
	}
	defer h.changed()

	if request.InputChannel != nil && !e.SelectInputChannel(*request.InputChannel) {
		http.Error(w, fmt.Sprintf("Input channel %d is not active", *request.InputChannel), http.StatusBadRequest)
		return
	}

	if request.Mode != nil && !e.SetMode(mode) {
		http.Error(w, "Power is off", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, h.status())
}

// PowerRequest is the body of POST /api/power
type PowerRequest struct {
	On bool `json:"on"`
}

// handlePower handles POST /api/power
func (h *Handler) handlePower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request PowerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.engine.SetPower(request.On)
	h.log.Info("Power %v", request.On)
	h.changed()

	writeJSON(w, http.StatusOK, h.status())
}

// handleRefresh handles POST /api/refresh
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := h.engine.Refresh(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Failed to refresh devices: %v", err), http.StatusInternalServerError)
		return
	}
	h.changed()

	writeJSON(w, http.StatusOK, h.engine.DeviceInfo())
}

func (h *Handler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

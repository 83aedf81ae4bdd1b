package httpapi

import (
	"context"
	"net/http"

	"firesafe-engine/internal/alerting"
	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

// SensorService 传感器服务（service.SensorService 实现）
type SensorService interface {
	AddReading(ctx context.Context, in models.SensorInput) (models.SensorReading, error)
	History(ctx context.Context) ([]models.SensorReading, error)
	Alerts(ctx context.Context) ([]models.AlertHistoryEntry, error)
	DispatchState(ctx context.Context) (alerting.State, error)
	Series(ctx context.Context) ([]models.SeriesSample, error)
}

// SensorHandler 传感器接口
type SensorHandler struct {
	sensors SensorService
	logger  *zap.Logger
}

// NewSensorHandler 创建 SensorHandler
func NewSensorHandler(sensors SensorService, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{sensors: sensors, logger: logger}
}

// AlertsResponse 通知历史 + 调度状态
type AlertsResponse struct {
	State alerting.State             `json:"state"`
	Items []models.AlertHistoryEntry `json:"items"`
}

// AddReading POST /api/v1/sensors/readings
func (h *SensorHandler) AddReading(w http.ResponseWriter, r *http.Request) {
	var in models.SensorInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reading, err := h.sensors.AddReading(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Success(reading))
}

// ListReadings GET /api/v1/sensors/readings
func (h *SensorHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.sensors.History(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if readings == nil {
		readings = []models.SensorReading{}
	}
	writeJSON(w, http.StatusOK, Success(readings))
}

// ListAlerts GET /api/v1/sensors/alerts
func (h *SensorHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.sensors.Alerts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	state, err := h.sensors.DispatchState(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if alerts == nil {
		alerts = []models.AlertHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, Success(AlertsResponse{State: state, Items: alerts}))
}

// Series GET /api/v1/sensors/series
func (h *SensorHandler) Series(w http.ResponseWriter, r *http.Request) {
	samples, err := h.sensors.Series(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if samples == nil {
		samples = []models.SeriesSample{}
	}
	writeJSON(w, http.StatusOK, Success(samples))
}

package api

import (
	"fmt"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addSlotHandler "github.com/m04kA/SMC-SlotCalendar/internal/api/handlers/add_slot"
	getSlotDetailsHandler "github.com/m04kA/SMC-SlotCalendar/internal/api/handlers/get_slot_details"
	listAvailabilityHandler "github.com/m04kA/SMC-SlotCalendar/internal/api/handlers/list_availability"
	removeSlotHandler "github.com/m04kA/SMC-SlotCalendar/internal/api/handlers/remove_slot"
	updateSlotHandler "github.com/m04kA/SMC-SlotCalendar/internal/api/handlers/update_slot"
	"github.com/m04kA/SMC-SlotCalendar/internal/api/middleware"
	"github.com/m04kA/SMC-SlotCalendar/pkg/metrics"
)

// SlotService все операции сервиса слотов, нужные обработчикам
type SlotService interface {
	listAvailabilityHandler.SlotService
	getSlotDetailsHandler.SlotService
	addSlotHandler.SlotService
	updateSlotHandler.SlotService
	removeSlotHandler.SlotService
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Options необязательные части роутера
type Options struct {
	// Metrics включает HTTP метрики и эндпоинт MetricsPath, если не nil
	Metrics     *metrics.Metrics
	MetricsPath string
	Gatherer    prometheus.Gatherer

	// AllowedOrigins для CORS; пустой список - CORS выключен
	AllowedOrigins []string

	// RequestTimeout дедлайн контекста запросов API; 0 - без дедлайна
	RequestTimeout time.Duration
}

// NewRouter собирает HTTP обработчик сервиса
func NewRouter(service SlotService, logger Logger, opts Options) http.Handler {
	listAvailability := listAvailabilityHandler.NewHandler(service, logger)
	listTotal := listAvailabilityHandler.NewTotalHandler(service, logger)
	getSlotDetails := getSlotDetailsHandler.NewHandler(service, logger)
	addSlot := addSlotHandler.NewHandler(service, logger)
	updateSlot := updateSlotHandler.NewHandler(service, logger)
	removeSlot := removeSlotHandler.NewHandler(service, logger)

	r := mux.NewRouter()

	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))

		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	if opts.RequestTimeout > 0 {
		api.Use(middleware.RequestTimeout(opts.RequestTimeout))
	}

	// Чтение
	api.HandleFunc("/slots", listAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/total", listTotal.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/details", getSlotDetails.Handle).Methods(http.MethodGet)

	// Изменение
	api.HandleFunc("/slot/add", addSlot.Handle).Methods(http.MethodPost)
	api.HandleFunc("/slot/update", updateSlot.Handle).Methods(http.MethodPut)
	api.HandleFunc("/slot/remove", removeSlot.Handle).Methods(http.MethodDelete)

	var handler http.Handler = r
	if len(opts.AllowedOrigins) > 0 {
		handler = gorillaHandlers.CORS(
			gorillaHandlers.AllowedOrigins(opts.AllowedOrigins),
			gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(handler)
	}

	return gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{logger: logger}),
	)(handler)
}

// recoveryLogger пишет паники из RecoveryHandler в Logger
type recoveryLogger struct {
	logger Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered: %s", fmt.Sprint(v...))
}

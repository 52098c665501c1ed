package httpapi

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// statusRecorder запоминает код ответа для логирования и метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument оборачивает handler логированием и histogram длительности.
// route — шаблон маршрута, а не фактический путь: метки метрик должны
// иметь ограниченную кардинальность.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(recorder, r)

		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordRequestDuration(route, r.Method, strconv.Itoa(recorder.status), duration)
		}
		s.logger.WithFields(log.Fields{
			"route":       route,
			"method":      r.Method,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
		}).Debug("request handled")
	}
}

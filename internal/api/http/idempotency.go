package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

const (
	// HeaderIdempotencyKey — заголовок ключа идемпотентности на создании педидо.
	HeaderIdempotencyKey = "Idempotency-Key"

	defaultIdempotencyTTL = 24 * time.Hour
)

// responseBuffer накапливает ответ handler'а, чтобы сохранить его
// в idempotency-записи и воспроизводить при повторе ключа.
type responseBuffer struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) { b.status = status }

func (b *responseBuffer) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *responseBuffer) flush(w http.ResponseWriter) {
	for key, values := range b.header {
		for _, value := range values {
			w.Header()[key] = append(w.Header()[key], value)
		}
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// requestHash связывает idempotency-ключ с конкретным запросом: повтор
// ключа с другим телом отклоняется.
func requestHash(method, path string, body []byte) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", method, path, body)))
	return hex.EncodeToString(sum[:])
}

// withIdempotency оборачивает handler обработкой заголовка Idempotency-Key.
// Тело запроса уже прочитано вызывающим кодом и передаётся для хэширования.
func (s *Server) withIdempotency(w http.ResponseWriter, r *http.Request, body []byte, handler func(http.ResponseWriter)) {
	key := r.Header.Get(HeaderIdempotencyKey)
	if key == "" || s.idempotency == nil {
		handler(w)
		return
	}

	hash := requestHash(r.Method, r.URL.Path, body)
	_, err := s.idempotency.CreateProcessing(key, hash, time.Now().UTC().Add(s.idempotencyTTL))
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
			s.replayIdempotent(w, key, hash)
			return
		}
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		writeDomainError(w, err)
		return
	}

	buffer := newResponseBuffer()
	handler(buffer)

	if buffer.status >= http.StatusInternalServerError {
		if markErr := s.idempotency.MarkFailed(key, buffer.body.Bytes(), buffer.status); markErr != nil {
			s.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to mark idempotency record as failed")
		}
	} else {
		if markErr := s.idempotency.MarkDone(key, buffer.body.Bytes(), buffer.status); markErr != nil {
			s.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to mark idempotency record as done")
		}
	}

	buffer.flush(w)
}

// replayIdempotent воспроизводит сохранённый ответ для повторного ключа.
func (s *Server) replayIdempotent(w http.ResponseWriter, key, hash string) {
	record, err := s.idempotency.Get(key)
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to load idempotency record")
		writeDomainError(w, err)
		return
	}

	if record.RequestHash != hash {
		writeDomainError(w, domain.ErrIdempotencyHashMismatch)
		return
	}

	if record.Status == domain.IdempotencyStatusProcessing {
		writeError(w, http.StatusConflict, "request with this idempotency key is still being processed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.HTTPStatus)
	_, _ = w.Write(record.ResponseBody)
}

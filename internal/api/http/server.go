package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/metrics"
	"github.com/vladislavdragonenkov/pedix/internal/service/catalog"
	"github.com/vladislavdragonenkov/pedix/internal/service/order"
)

// maxBodySize ограничивает размер тела запроса (1 MiB).
const maxBodySize = 1 << 20

// Server — REST-слой поверх сервисов педидо и кардапио.
type Server struct {
	orders         *order.Service
	catalog        *catalog.Service
	idempotency    domain.IdempotencyRepository
	metrics        *metrics.OrderMetrics
	logger         *log.Entry
	idempotencyTTL time.Duration
}

// NewServer создаёт REST-сервер. idempotency и metrics опциональны:
// nil отключает соответствующий слой.
func NewServer(
	orders *order.Service,
	catalogSvc *catalog.Service,
	idempotency domain.IdempotencyRepository,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	return &Server{
		orders:         orders,
		catalog:        catalogSvc,
		idempotency:    idempotency,
		metrics:        orderMetrics,
		logger:         logger,
		idempotencyTTL: defaultIdempotencyTTL,
	}
}

// Routes собирает маршруты API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/pedido/comanda/{comandaId}", s.instrument("/api/pedido/comanda/{comandaId}", s.handleCriarPedido))
	mux.HandleFunc("GET /api/pedido/comanda/{comandaId}", s.instrument("/api/pedido/comanda/{comandaId}", s.handleListarPedidosDaComanda))
	mux.HandleFunc("GET /api/pedido/{id}", s.instrument("/api/pedido/{id}", s.handleBuscarPedido))
	mux.HandleFunc("PUT /api/pedido/{id}/status", s.instrument("/api/pedido/{id}/status", s.handleAtualizarStatus))
	mux.HandleFunc("DELETE /api/pedido/{id}", s.instrument("/api/pedido/{id}", s.handleDeletarPedido))

	mux.HandleFunc("POST /api/pedido-item", s.instrument("/api/pedido-item", s.handleAdicionarItem))
	mux.HandleFunc("GET /api/pedido-item", s.instrument("/api/pedido-item", s.handleListarItens))
	mux.HandleFunc("GET /api/pedido-item/{id}", s.instrument("/api/pedido-item/{id}", s.handleBuscarItem))
	mux.HandleFunc("PUT /api/pedido-item/{id}", s.instrument("/api/pedido-item/{id}", s.handleAtualizarItem))
	mux.HandleFunc("DELETE /api/pedido-item/{id}", s.instrument("/api/pedido-item/{id}", s.handleRemoverItem))

	mux.HandleFunc("GET /api/cardapio", s.instrument("/api/cardapio", s.handleListarCardapio))
	mux.HandleFunc("GET /api/cardapio/categoria/{categoria}", s.instrument("/api/cardapio/categoria/{categoria}", s.handleListarPorCategoria))
	mux.HandleFunc("GET /api/cardapio/{id}", s.instrument("/api/cardapio/{id}", s.handleBuscarItemCardapio))
	mux.HandleFunc("POST /api/cardapio", s.instrument("/api/cardapio", s.handleCriarItemCardapio))
	mux.HandleFunc("PUT /api/cardapio/{id}", s.instrument("/api/cardapio/{id}", s.handleAtualizarItemCardapio))
	mux.HandleFunc("PATCH /api/cardapio/{id}/disponibilidade", s.instrument("/api/cardapio/{id}/disponibilidade", s.handleAtualizarDisponibilidade))
	mux.HandleFunc("DELETE /api/cardapio/{id}", s.instrument("/api/cardapio/{id}", s.handleDeletarItemCardapio))

	return mux
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", nil)
		return nil, false
	}
	return body, true
}

// --- Pedido ---

func (s *Server) handleCriarPedido(w http.ResponseWriter, r *http.Request) {
	comandaID, ok := pathID(r, "comandaId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comanda id", nil)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	s.withIdempotency(w, r, body, func(w http.ResponseWriter) {
		var req criarPedidoRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}

		lines := make([]order.LineRequest, 0, len(req.Itens))
		for _, item := range req.Itens {
			lines = append(lines, order.LineRequest{
				MenuItemID: item.ItemCardapioID,
				Quantity:   item.Quantidade,
			})
		}

		created, err := s.orders.Create(comandaID, req.Observacao, lines)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPedidoResponse(created))
	})
}

func (s *Server) handleBuscarPedido(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pedido id", nil)
		return
	}

	found, err := s.orders.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := toPedidoResponse(found)
	if events, err := s.orders.Timeline(id); err == nil {
		response.Timeline = toTimelineResponses(events)
	} else {
		s.logger.WithError(err).WithField("pedido_id", id).Warn("failed to load pedido timeline")
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleListarPedidosDaComanda(w http.ResponseWriter, r *http.Request) {
	comandaID, ok := pathID(r, "comandaId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comanda id", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	orders, err := s.orders.ListByTab(comandaID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]pedidoResponse, 0, len(orders))
	for _, found := range orders {
		responses = append(responses, toPedidoResponse(found))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleAtualizarStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pedido id", nil)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "status query parameter is required", nil)
		return
	}

	updated, err := s.orders.UpdateStatus(id, domain.OrderStatus(status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPedidoResponse(updated))
}

func (s *Server) handleDeletarPedido(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pedido id", nil)
		return
	}

	if err := s.orders.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Pedido item ---

func (s *Server) handleAdicionarItem(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req adicionarItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.PedidoID <= 0 {
		writeError(w, http.StatusBadRequest, "pedidoId is required", nil)
		return
	}

	updated, err := s.orders.AddLine(req.PedidoID, req.ItemCardapioID, req.Quantidade, req.PrecoUnitario)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPedidoResponse(updated))
}

func (s *Server) handleListarItens(w http.ResponseWriter, _ *http.Request) {
	lines, err := s.orders.ListLines()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]itemPedidoResponse, 0, len(lines))
	for _, line := range lines {
		responses = append(responses, toItemPedidoResponse(line))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleBuscarItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}

	line, err := s.orders.GetLine(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemPedidoResponse(line))
}

func (s *Server) handleAtualizarItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req atualizarItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Quantidade == nil && req.PrecoUnitario == nil {
		writeError(w, http.StatusBadRequest, "quantidade or precoUnitario is required", nil)
		return
	}

	updated, err := s.orders.UpdateLine(id, req.Quantidade, req.PrecoUnitario)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPedidoResponse(updated))
}

func (s *Server) handleRemoverItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}

	updated, err := s.orders.RemoveLine(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPedidoResponse(updated))
}

// --- Cardapio ---

func (s *Server) handleListarCardapio(w http.ResponseWriter, _ *http.Request) {
	items, err := s.catalog.ListAvailable()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemCardapioResponses(items))
}

func (s *Server) handleListarPorCategoria(w http.ResponseWriter, r *http.Request) {
	categoria := domain.MenuCategory(r.PathValue("categoria"))

	items, err := s.catalog.ListByCategory(categoria)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemCardapioResponses(items))
}

func (s *Server) handleBuscarItemCardapio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item cardapio id", nil)
		return
	}

	item, err := s.catalog.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemCardapioResponse(item))
}

func (s *Server) handleCriarItemCardapio(w http.ResponseWriter, r *http.Request) {
	item, ok := s.decodeItemCardapio(w, r)
	if !ok {
		return
	}

	created, err := s.catalog.Create(item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemCardapioResponse(created))
}

func (s *Server) handleAtualizarItemCardapio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item cardapio id", nil)
		return
	}

	item, ok := s.decodeItemCardapio(w, r)
	if !ok {
		return
	}
	item.ID = id

	updated, err := s.catalog.Update(item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemCardapioResponse(updated))
}

func (s *Server) handleAtualizarDisponibilidade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item cardapio id", nil)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req disponibilidadeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Disponivel == nil {
		writeError(w, http.StatusBadRequest, "disponivel is required", nil)
		return
	}

	updated, err := s.catalog.SetAvailability(id, *req.Disponivel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemCardapioResponse(updated))
}

func (s *Server) handleDeletarItemCardapio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item cardapio id", nil)
		return
	}

	if err := s.catalog.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeItemCardapio(w http.ResponseWriter, r *http.Request) (domain.MenuItem, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return domain.MenuItem{}, false
	}

	var req itemCardapioRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return domain.MenuItem{}, false
	}

	// Новая позиция доступна по умолчанию.
	available := true
	if req.Disponivel != nil {
		available = *req.Disponivel
	}

	return domain.MenuItem{
		Name:        req.Nome,
		Description: req.Descricao,
		Price:       req.Preco,
		Category:    domain.MenuCategory(req.Categoria),
		Available:   available,
		ImageURL:    req.ImagemURL,
	}, true
}

package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// criarPedidoRequest — тело POST /api/pedido/comanda/{comandaId}.
type criarPedidoRequest struct {
	Observacao string             `json:"observacao"`
	Itens      []criarItemRequest `json:"itens"`
}

type criarItemRequest struct {
	ItemCardapioID int64 `json:"itemCardapioId"`
	Quantidade     int32 `json:"quantidade"`
}

// adicionarItemRequest — тело POST /api/pedido-item.
type adicionarItemRequest struct {
	PedidoID       int64            `json:"pedidoId"`
	ItemCardapioID int64            `json:"itemCardapioId"`
	Quantidade     int32            `json:"quantidade"`
	PrecoUnitario  *decimal.Decimal `json:"precoUnitario,omitempty"`
}

// atualizarItemRequest — тело PUT /api/pedido-item/{id}.
// Обновлению подлежат только количество и цена за единицу.
type atualizarItemRequest struct {
	Quantidade    *int32           `json:"quantidade,omitempty"`
	PrecoUnitario *decimal.Decimal `json:"precoUnitario,omitempty"`
}

// disponibilidadeRequest — тело PATCH /api/cardapio/{id}/disponibilidade.
type disponibilidadeRequest struct {
	Disponivel *bool `json:"disponivel"`
}

// itemCardapioRequest — тело POST/PUT /api/cardapio.
type itemCardapioRequest struct {
	Nome       string          `json:"nome"`
	Descricao  string          `json:"descricao"`
	Preco      decimal.Decimal `json:"preco"`
	Categoria  string          `json:"categoria"`
	Disponivel *bool           `json:"disponivel,omitempty"`
	ImagemURL  string          `json:"imagemUrl"`
}

type pedidoResponse struct {
	ID           int64                `json:"id"`
	ComandaID    int64                `json:"comandaId"`
	Status       string               `json:"status"`
	Observacao   string               `json:"observacao,omitempty"`
	Total        string               `json:"total"`
	Itens        []itemPedidoResponse `json:"itens"`
	CriadoEm     time.Time            `json:"criadoEm"`
	AtualizadoEm time.Time            `json:"atualizadoEm"`
	Timeline     []timelineResponse   `json:"timeline,omitempty"`
}

type itemPedidoResponse struct {
	ID             int64  `json:"id"`
	PedidoID       int64  `json:"pedidoId"`
	ItemCardapioID int64  `json:"itemCardapioId"`
	Nome           string `json:"nome"`
	Quantidade     int32  `json:"quantidade"`
	PrecoUnitario  string `json:"precoUnitario"`
	Subtotal       string `json:"subtotal"`
}

type timelineResponse struct {
	Tipo       string    `json:"tipo"`
	Detalhe    string    `json:"detalhe,omitempty"`
	OcorridoEm time.Time `json:"ocorridoEm"`
}

type itemCardapioResponse struct {
	ID         int64  `json:"id"`
	Nome       string `json:"nome"`
	Descricao  string `json:"descricao,omitempty"`
	Preco      string `json:"preco"`
	Categoria  string `json:"categoria"`
	Disponivel bool   `json:"disponivel"`
	ImagemURL  string `json:"imagemUrl,omitempty"`
}

func toPedidoResponse(order domain.Order) pedidoResponse {
	itens := make([]itemPedidoResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		itens = append(itens, toItemPedidoResponse(line))
	}
	return pedidoResponse{
		ID:           order.ID,
		ComandaID:    order.TabID,
		Status:       string(order.Status),
		Observacao:   order.Note,
		Total:        domain.MoneyString(order.Total),
		Itens:        itens,
		CriadoEm:     order.CreatedAt,
		AtualizadoEm: order.UpdatedAt,
	}
}

func toItemPedidoResponse(line domain.OrderLine) itemPedidoResponse {
	return itemPedidoResponse{
		ID:             line.ID,
		PedidoID:       line.OrderID,
		ItemCardapioID: line.MenuItemID,
		Nome:           line.Name,
		Quantidade:     line.Quantity,
		PrecoUnitario:  domain.MoneyString(line.UnitPrice),
		Subtotal:       domain.MoneyString(line.Subtotal),
	}
}

func toTimelineResponses(events []domain.TimelineEvent) []timelineResponse {
	result := make([]timelineResponse, 0, len(events))
	for _, event := range events {
		result = append(result, timelineResponse{
			Tipo:       event.Type,
			Detalhe:    event.Reason,
			OcorridoEm: event.Occurred,
		})
	}
	return result
}

func toItemCardapioResponse(item domain.MenuItem) itemCardapioResponse {
	return itemCardapioResponse{
		ID:         item.ID,
		Nome:       item.Name,
		Descricao:  item.Description,
		Preco:      domain.MoneyString(item.Price),
		Categoria:  string(item.Category),
		Disponivel: item.Available,
		ImagemURL:  item.ImageURL,
	}
}

func toItemCardapioResponses(items []domain.MenuItem) []itemCardapioResponse {
	result := make([]itemCardapioResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toItemCardapioResponse(item))
	}
	return result
}

package service

import (
	"context"

	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	"github.com/jyotishankar04/watch-store-server/internal/gateway"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
)

// PaymentGateway is the slice of the gateway client the orchestrator needs.
type PaymentGateway interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error)
	VerifyStatus(ctx context.Context, txnID string) (gateway.Status, error)
}

type PlacementService interface {
	PlaceOrder(ctx context.Context, userID, addressID string) (*d.Order, error)
	InitiatePayment(ctx context.Context, userID, addressID string) (*PaymentInitiation, error)
	ConfirmPayment(ctx context.Context, userID, txnID string) (*d.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*d.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*d.Order, error)
}

type CartService interface {
	GetCart(ctx context.Context, userID string) ([]*d.CartItem, error)
	AddItem(ctx context.Context, userID, productID string, quantity int32) (*d.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int32) (*d.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
}

type PaymentInitiation struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	Amount        int64  `json:"amount"`
}

type PlacementServiceImpl struct {
	repo    r.Store
	gateway PaymentGateway
	log     *zap.Logger
	metrics *Metrics
}

func NewPlacementService(repo r.Store, gw PaymentGateway, log *zap.Logger, metrics *Metrics) *PlacementServiceImpl {
	return &PlacementServiceImpl{
		repo:    repo,
		gateway: gw,
		log:     log,
		metrics: metrics,
	}
}

package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"vehirent/internal/entities"
)

// Gateway is the payment provider seen by PaymentService.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*entities.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Signer computes and checks provider callback signatures:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (s *Signer) Verify(orderID, paymentID, signature string) bool {
	expected := s.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// LocalGateway issues order ids without calling a provider. It is used when
// no Stripe key is configured.
type LocalGateway struct {
	*Signer
}

func NewLocalGateway(secret string) *LocalGateway {
	return &LocalGateway{Signer: NewSigner(secret)}
}

func (g *LocalGateway) CreateOrder(ctx context.Context, amount float64, currency string) (*entities.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &entities.Order{
		OrderID:  "order_" + uuid.NewString(),
		Amount:   amount,
		Currency: currency,
	}, nil
}

func (g *LocalGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.Verify(orderID, paymentID, signature)
}

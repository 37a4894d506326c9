package service

import (
	"net/url"
	"strings"

	"qr-storefront/storefront-svc/internal/domain"

	"github.com/skip2/go-qrcode"
)

// TableQRGenerator encodes the storefront entry link printed on tables and
// takeaway counters.
type TableQRGenerator struct {
	BaseURL string
	Size    int
}

func (g TableQRGenerator) Link(restaurantID string, orderType domain.OrderType) string {
	q := url.Values{}
	q.Set("type", string(orderType))
	return strings.TrimRight(g.BaseURL, "/") + "/r/" + url.PathEscape(restaurantID) + "?" + q.Encode()
}

func (g TableQRGenerator) Generate(restaurantID string, orderType domain.OrderType) ([]byte, error) {
	size := g.Size
	if size == 0 {
		size = 256
	}
	return qrcode.Encode(g.Link(restaurantID, orderType), qrcode.Medium, size)
}

var _ QRGenerator = TableQRGenerator{}

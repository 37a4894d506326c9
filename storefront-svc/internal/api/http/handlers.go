package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"qr-storefront/storefront-svc/internal/domain"
	"qr-storefront/storefront-svc/internal/service"
	"qr-storefront/storefront-svc/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const maxImageSize = 10 << 20

type Handler struct {
	Storefront service.StorefrontServiceInterface
	Carts      service.CartServiceInterface
	QR         service.QRGenerator
	Logger     zerolog.Logger
}

func NewHandler(storefront service.StorefrontServiceInterface, carts service.CartServiceInterface, qr service.QRGenerator, logger zerolog.Logger) *Handler {
	return &Handler{
		Storefront: storefront,
		Carts:      carts,
		QR:         qr,
		Logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/restaurants/{restaurantId}", h.getRestaurant).Methods("GET")
	r.HandleFunc("/api/restaurants/{restaurantId}/menu", h.getMenu).Methods("GET")
	r.HandleFunc("/api/restaurants/{restaurantId}/qrcode", h.getQRCode).Methods("GET")
	r.HandleFunc("/api/restaurants/{restaurantId}/menu/{itemId}/image", h.uploadMenuImage).Methods("POST")

	r.HandleFunc("/api/cart", h.initCart).Methods("POST")
	r.HandleFunc("/api/cart", h.getCart).Methods("GET")
	r.HandleFunc("/api/cart", h.clearCart).Methods("DELETE")
	r.HandleFunc("/api/cart/items", h.addItem).Methods("POST")
	r.HandleFunc("/api/cart/items/{itemId}", h.updateQuantity).Methods("PUT")
	r.HandleFunc("/api/cart/mobile", h.setMobileNumber).Methods("PUT")
	r.HandleFunc("/api/cart/checkout", h.checkout).Methods("POST")

	r.HandleFunc("/api/payments/pending", h.pendingPayments).Methods("GET")
}

// cartResponse is the body of every cart route. Cart is null while the
// session has no active cart.
type cartResponse struct {
	Cart      *domain.CartState `json:"cart"`
	Total     string            `json:"total"`
	ItemCount int               `json:"item_count"`
}

func newCartResponse(state domain.CartState, active bool) cartResponse {
	if !active {
		return cartResponse{Total: "0"}
	}
	return cartResponse{Cart: &state, Total: state.Total().String(), ItemCount: state.ItemCount()}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func orderTypeParam(r *http.Request) (domain.OrderType, error) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return domain.OrderTypeDineIn, nil
	}
	return domain.ParseOrderType(raw)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "storefront-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	page, err := h.Storefront.LoadRestaurant(r.Context(), mux.Vars(r)["restaurantId"])
	if err != nil {
		h.Logger.Error().Err(err).Msg("load restaurant")
		writeError(w, http.StatusInternalServerError, "failed to load restaurant")
		return
	}
	if page.Restaurant == nil {
		writeJSON(w, http.StatusNotFound, page)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	orderType, err := orderTypeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.Storefront.LoadMenu(r.Context(), mux.Vars(r)["restaurantId"], orderType)
	if err != nil {
		h.Logger.Error().Err(err).Msg("load menu")
		writeError(w, http.StatusInternalServerError, "failed to load menu")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) getQRCode(w http.ResponseWriter, r *http.Request) {
	orderType, err := orderTypeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	png, err := h.QR.Generate(mux.Vars(r)["restaurantId"], orderType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) uploadMenuImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "error retrieving file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.AllowedImageType(contentType) {
		writeError(w, http.StatusBadRequest, "invalid file type, only JPEG, PNG, GIF, WebP allowed")
		return
	}

	imageURL, err := h.Storefront.UploadMenuImage(r.Context(), vars["restaurantId"], vars["itemId"], header.Filename, contentType, file)
	if errors.Is(err, service.ErrMenuItemNotFound) {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("upload menu image")
		writeError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_url": imageURL})
}

func (h *Handler) initCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID string `json:"restaurant_id"`
		OrderType    string `json:"order_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RestaurantID == "" {
		writeError(w, http.StatusBadRequest, "restaurant_id is required")
		return
	}
	if req.OrderType == "" {
		req.OrderType = string(domain.OrderTypeDineIn)
	}
	orderType, err := domain.ParseOrderType(req.OrderType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := h.Carts.Init(r.Context(), SessionID(r), req.RestaurantID, orderType)
	writeJSON(w, http.StatusOK, newCartResponse(state, true))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	state, ok := h.Carts.Get(SessionID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, newCartResponse(state, false))
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(state, true))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.Carts.Clear(r.Context(), SessionID(r))
	writeJSON(w, http.StatusOK, newCartResponse(domain.CartState{}, false))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	state, active, err := h.Carts.AddItem(r.Context(), SessionID(r), req.ItemID)
	if errors.Is(err, service.ErrMenuItemNotFound) {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("add item")
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(state, active))
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	state, active := h.Carts.UpdateQuantity(r.Context(), SessionID(r), mux.Vars(r)["itemId"], *req.Quantity)
	writeJSON(w, http.StatusOK, newCartResponse(state, active))
}

func (h *Handler) setMobileNumber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MobileNumber string `json:"mobile_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, active := h.Carts.SetMobileNumber(r.Context(), SessionID(r), req.MobileNumber)
	writeJSON(w, http.StatusOK, newCartResponse(state, active))
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Carts.Checkout(r.Context(), SessionID(r))
	switch {
	case errors.Is(err, service.ErrCartNotActive):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrMobileNumberRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Logger.Error().Err(err).Msg("checkout")
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) pendingPayments(w http.ResponseWriter, r *http.Request) {
	count, err := h.Carts.PendingPayments(r.Context(), SessionID(r))
	if err != nil {
		h.Logger.Error().Err(err).Msg("pending payments")
		writeError(w, http.StatusInternalServerError, "failed to read pending payments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

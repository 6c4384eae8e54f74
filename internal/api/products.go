package api

import (
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// ProductRequest carries per 100g values. Every macro is required, zero is
// a valid value.
type ProductRequest struct {
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Fat      *float64 `json:"fat"`
	Carbs    *float64 `json:"carbs"`
	Scanned  bool     `json:"scanned,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	Color    string   `json:"color,omitempty"`
}

func (p ProductRequest) validate() string {
	if p.Name == "" {
		return "name empty"
	}
	for field, v := range map[string]*float64{
		"calories": p.Calories,
		"protein":  p.Protein,
		"fat":      p.Fat,
		"carbs":    p.Carbs,
	} {
		if v == nil {
			return field + " missing"
		}
		if *v < 0 {
			return field + " negative"
		}
	}
	return ""
}

func (p ProductRequest) product() diary.Product {
	return diary.Product{
		Name:     p.Name,
		Brand:    p.Brand,
		Calories: *p.Calories,
		Protein:  *p.Protein,
		Fat:      *p.Fat,
		Carbs:    *p.Carbs,
		Scanned:  p.Scanned,
		Icon:     p.Icon,
		Color:    p.Color,
	}
}

type ListProductsResponse struct {
	Products []diary.Product `json:"products"`
	Total    int             `json:"total"`
}

func (handler *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.list")
	defer span.End()

	products := handler.store.Products()
	pkg.WriteJSON(w, ListProductsResponse{
		Products: products,
		Total:    len(products),
	}, http.StatusOK)
}

func (handler *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.get")
	defer span.End()

	product, err := handler.store.FindProduct(mux.Vars(r)["id"])
	if err != nil {
		handler.writeStoreError(w, "get product", err)
		return
	}
	pkg.WriteJSON(w, product, http.StatusOK)
}

func (handler *Handler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.new")
	defer span.End()

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("new product: %s", err)
		writeBadRequest(w, "invalid product json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	id, err := handler.store.AddProduct(req.product())
	if err != nil {
		handler.writeStoreError(w, "add product", err)
		return
	}
	product, err := handler.store.FindProduct(id)
	if err != nil {
		handler.writeStoreError(w, "find new product", err)
		return
	}

	log.Debugf("new product added: [%s] %s", product.ID, product.Name)
	pkg.WriteJSON(w, product, http.StatusCreated)
}

func (handler *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindProduct(id); err != nil {
		handler.writeStoreError(w, "update product", err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("update product %s: %s", id, err)
		writeBadRequest(w, "invalid product json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	if err := handler.store.UpdateProduct(id, req.product()); err != nil {
		handler.writeStoreError(w, "update product", err)
		return
	}
	product, err := handler.store.FindProduct(id)
	if err != nil {
		handler.writeStoreError(w, "find updated product", err)
		return
	}
	pkg.WriteJSON(w, product, http.StatusOK)
}

func (handler *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindProduct(id); err != nil {
		handler.writeStoreError(w, "delete product", err)
		return
	}
	if err := handler.store.DeleteProduct(id); err != nil {
		handler.writeStoreError(w, "delete product", err)
		return
	}
	pkg.WriteJSON(w, IDResponse{ID: id}, http.StatusOK)
}

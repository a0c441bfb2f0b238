package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ekharid/internal/middleware"
	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/service"
	"github.com/iliyamo/ekharid/internal/storage"
)

// imagesField is the multipart field carrying product images.
const imagesField = "images"

// ProductHandler serves the catalog: seller writes and public reads.
type ProductHandler struct {
	Catalog *service.CatalogService
}

func NewProductHandler(cat *service.CatalogService) *ProductHandler {
	return &ProductHandler{Catalog: cat}
}

type searchReq struct {
	SearchText string `json:"searchText" validate:"required"`
}

// AddProduct creates a product from a multipart form with up to five
// files in the "images" field.
func (h *ProductHandler) AddProduct(c echo.Context) error {
	form, err := c.MultipartForm() // fields plus image files
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form expected")
	}
	in, err := productInput(form) // title, description, category, price, stock
	if err != nil {
		return fail(c, err)
	}
	uploads, closeAll, err := openUploads(form) // at most five files
	if err != nil {
		return fail(c, err)
	}
	defer closeAll() // release the multipart temp files

	ctx, cancel := reqCtx(c) // bound the store calls
	defer cancel()

	p, err := h.Catalog.Create(ctx, c.Param("sellerId"), in, uploads) // route guard already matched sellerId to the token
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "product added successfully",
		"product": toProductPart(p),
	})
}

// UpdateProduct applies a partial update.  Fields absent from the form are
// left unchanged; new images are appended.  A JSON body is accepted when no
// images are sent.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var (
		patch   service.ProductPatch
		uploads []storage.Upload
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) { // form may carry new images
		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
		}
		if patch, err = productPatch(form.Value); err != nil {
			return fail(c, err)
		}
		var closeAll func()
		if uploads, closeAll, err = openUploads(form); err != nil {
			return fail(c, err)
		}
		defer closeAll()
	} else { // plain JSON patch, no images
		var req struct {
			Title       *string  `json:"title"`       // nil keeps the stored title
			Description *string  `json:"description"` // nil keeps the stored description
			Price       *float64 `json:"price"`       // nil keeps the stored price
			Category    *string  `json:"category"`    // nil keeps the stored category
			Stock       *int     `json:"stock"`       // nil keeps the stored stock
			Hidden      *bool    `json:"hidden"`      // withdraw or relist
		}
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		patch = service.ProductPatch(req) // identical field set
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Catalog.Update(ctx, middleware.UserID(c), c.Param("productId"), patch, uploads) // ownership checked in the service
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "product updated successfully",
		"product": toProductPart(p),
	})
}

// DeleteProduct hard-deletes a product of the calling seller.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Delete(ctx, middleware.UserID(c), c.Param("productId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}

// GetAllProducts returns the whole catalog.
func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, err := h.Catalog.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "all products fetched successfully",
		"products": toProductParts(ps),
	})
}

// GetSellerProducts returns the products of one seller.
func (h *ProductHandler) GetSellerProducts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, err := h.Catalog.ListBySeller(ctx, c.Param("sellerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "seller products fetched successfully",
		"products": toProductParts(ps),
	})
}

// GetProductByID returns a single product.
func (h *ProductHandler) GetProductByID(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Catalog.Get(ctx, c.Param("productId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "product fetched successfully",
		"product": toProductPart(p),
	})
}

// SearchProducts matches searchText exactly against title, description
// and category.
func (h *ProductHandler) SearchProducts(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, err := h.Catalog.Search(ctx, req.SearchText)
	if err != nil {
		return fail(c, err)
	}
	msg := "products found"
	if len(ps) == 0 { // empty result is still 200
		msg = "no products match " + strconv.Quote(req.SearchText)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "products": toProductParts(ps)})
}

// ----- form helpers -----

func formValue(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 { // field absent from the form
		return "", false
	}
	return strings.TrimSpace(v[0]), true // first value wins
}

func parsePrice(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64) // also accepts NaN/Inf; Product.Validate rejects those
	if err != nil {
		return 0, fmt.Errorf("%w: price must be a number", model.ErrValidation)
	}
	return f, nil
}

func parseStock(s string) (int, error) {
	n, err := strconv.Atoi(s) // "2.5" is rejected here
	if err != nil {
		return 0, fmt.Errorf("%w: stock must be a whole number", model.ErrValidation)
	}
	return n, nil
}

func productInput(form *multipart.Form) (service.ProductInput, error) {
	var in service.ProductInput
	in.Title, _ = formValue(form.Value, "title")
	in.Description, _ = formValue(form.Value, "description")
	in.Category, _ = formValue(form.Value, "category")

	price, ok := formValue(form.Value, "price")
	if !ok || price == "" {
		return in, fmt.Errorf("%w: price is required", model.ErrValidation)
	}
	stock, ok := formValue(form.Value, "stock")
	if !ok || stock == "" {
		return in, fmt.Errorf("%w: stock is required", model.ErrValidation)
	}
	var err error
	if in.Price, err = parsePrice(price); err != nil {
		return in, err
	}
	if in.Stock, err = parseStock(stock); err != nil {
		return in, err
	}
	return in, nil
}

func productPatch(values map[string][]string) (service.ProductPatch, error) {
	var p service.ProductPatch
	if v, ok := formValue(values, "title"); ok {
		p.Title = &v
	}
	if v, ok := formValue(values, "description"); ok {
		p.Description = &v
	}
	if v, ok := formValue(values, "category"); ok {
		p.Category = &v
	}
	if v, ok := formValue(values, "price"); ok {
		f, err := parsePrice(v)
		if err != nil {
			return p, err
		}
		p.Price = &f
	}
	if v, ok := formValue(values, "stock"); ok {
		n, err := parseStock(v)
		if err != nil {
			return p, err
		}
		p.Stock = &n
	}
	if v, ok := formValue(values, "hidden"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%w: hidden must be true or false", model.ErrValidation)
		}
		p.Hidden = &b
	}
	return p, nil
}

// openUploads opens every file of the images field.  The returned func
// closes them all.
func openUploads(form *multipart.Form) ([]storage.Upload, func(), error) {
	headers := form.File[imagesField]
	if len(headers) > model.MaxImagesPerUpload { // checked before any file is opened
		return nil, func() {}, fmt.Errorf("%w: at most %d images per request", model.ErrValidation, model.MaxImagesPerUpload)
	}
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open() // memory or temp-file backed
		if err != nil {
			closeAll() // close what was opened so far
			return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, storage.Upload{Filename: fh.Filename, Body: f})
	}
	return uploads, closeAll, nil
}

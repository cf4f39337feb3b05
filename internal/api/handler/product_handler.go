package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
)

const (
	formFileField = "file"
	formDataField = "data"
)

// ProductHandler serves the /product catalog routes.
type ProductHandler struct {
	service ports.ProductService
	log     zerolog.Logger
}

func NewProductHandler(service ports.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{service: service, log: log}
}

// List handles GET /product.
//
// @Summary      List products
// @Tags         product
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   productResponse
// @Failure      401  {object}  errorResponse
// @Router       /product [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductListResponse(products))
}

// Get handles GET /product/:id.
//
// @Summary      Get a product
// @Tags         product
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  productResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /product/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// Create handles POST /product/create-product.
//
// @Summary      Create a product
// @Tags         product
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file    true  "Product image (jpg, jpeg, png or gif, max 1MB)"
// @Param        data  formData  string  true  "Product JSON: {name, description, category, price, stock}"
// @Success      201   {object}  productResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /product/create-product [post]
func (h *ProductHandler) Create(c echo.Context) error {
	input, err := readProductData(c)
	if err != nil {
		return err
	}
	image, err := readUpload(c)
	if err != nil {
		h.log.Debug().Err(err).Msg("product image rejected")
		return err
	}

	product, err := h.service.CreateProduct(c.Request().Context(), input, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProductResponse(product))
}

// Update handles PUT /product/:id.
//
// @Summary      Update a product
// @Tags         product
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int     true  "Product ID"
// @Param        file  formData  file    true  "Product image (jpg, jpeg, png or gif, max 1MB)"
// @Param        data  formData  string  true  "Product JSON: {name, description, category, price, stock}"
// @Success      200   {object}  productResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /product/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	input, err := readProductData(c)
	if err != nil {
		return err
	}
	image, err := readUpload(c)
	if err != nil {
		h.log.Debug().Err(err).Msg("product image rejected")
		return err
	}

	product, err := h.service.UpdateProduct(c.Request().Context(), id, input, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// Delete handles DELETE /product/:id.
//
// @Summary      Delete a product
// @Tags         product
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  productResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /product/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	product, err := h.service.DeleteProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

func productID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

func readProductData(c echo.Context) (ports.ProductInput, error) {
	raw := c.FormValue(formDataField)
	if raw == "" {
		return ports.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "data is required")
	}

	var req productRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return ports.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "data must be a valid product JSON document")
	}
	if err := c.Validate(&req); err != nil {
		return ports.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return toProductInput(req), nil
}

// readUpload reads the image part, rejecting missing, oversized or
// non-image files before anything reaches storage.
func readUpload(c echo.Context) (ports.ImageInput, error) {
	fh, err := c.FormFile(formFileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return ports.ImageInput{}, fmt.Errorf("%w: image is required", domain.ErrInvalidImage)
		}
		return ports.ImageInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	if fh.Size > domain.MaxImageBytes {
		return ports.ImageInput{}, errImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return ports.ImageInput{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageBytes+1))
	if err != nil {
		return ports.ImageInput{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > domain.MaxImageBytes {
		return ports.ImageInput{}, errImageTooLarge
	}
	if len(data) == 0 {
		return ports.ImageInput{}, fmt.Errorf("%w: image is required", domain.ErrInvalidImage)
	}

	contentType := uploadContentType(fh.Header.Get(echo.HeaderContentType), data)
	if !domain.AcceptsImageType(contentType) {
		return ports.ImageInput{}, errImageType
	}

	return ports.ImageInput{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}

var (
	errImageTooLarge = fmt.Errorf("%w: image must not exceed 1MB", domain.ErrInvalidImage)
	errImageType     = fmt.Errorf("%w: image must be jpg, jpeg, png or gif", domain.ErrInvalidImage)
)

// uploadContentType trusts the part header unless it is absent or generic,
// in which case the bytes are sniffed.
func uploadContentType(header string, data []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != echo.MIMEOctetStream {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

package controllers

import (
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/pkg/bind"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
)

type ItemController struct {
	service   *services.ItemService
	maxUpload int64
}

func NewItemController(service *services.ItemService, maxUpload int64) *ItemController {
	return &ItemController{service: service, maxUpload: maxUpload}
}

type itemRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,max=120"`
	Category    string  `json:"category" form:"category" validate:"required,oneof=plastic metal glass paper other"`
	Weight      float64 `json:"weight" form:"weight" validate:"gt=0"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
	Description string  `json:"description" form:"description" validate:"max=2000"`
}

type itemUpdateRequest struct {
	Name        *string  `json:"name" form:"name" validate:"omitempty,min=1,max=120"`
	Category    *string  `json:"category" form:"category" validate:"omitempty,oneof=plastic metal glass paper other"`
	Weight      *float64 `json:"weight" form:"weight" validate:"omitempty,gt=0"`
	Price       *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	Description *string  `json:"description" form:"description" validate:"omitempty,max=2000"`
}

func (c *ItemController) Index(cx *ctx.Context) {
	items, err := c.service.ListAvailable(cx.Context())
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(items)
}

func (c *ItemController) Show(cx *ctx.Context) {
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}
	it, err := c.service.Get(cx.Context(), id)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(it)
}

// Store accepts JSON, or multipart/form-data with an optional "image" file.
func (c *ItemController) Store(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}

	var (
		req itemRequest
		img *services.Upload
	)
	if isMultipart(cx.R) {
		form, ok := c.parseForm(cx)
		if !ok {
			return
		}
		defer form.RemoveAll()

		errs := map[string]string{}
		req.Name = formValue(form, "name")
		req.Category = formValue(form, "category")
		req.Description = formValue(form, "description")
		req.Weight = formFloat(form, "weight", errs)
		req.Price = formFloat(form, "price", errs)
		if !validate(cx, &req, errs) {
			return
		}
		var closeImage func()
		if img, closeImage, ok = c.image(cx, form); !ok {
			return
		}
		defer closeImage()
	} else if !cx.BindJSON(&req) {
		return
	}

	it, err := c.service.Create(cx.Context(), p, services.ItemInput{
		Name:        req.Name,
		Category:    models.Category(req.Category),
		Weight:      req.Weight,
		Price:       req.Price,
		Description: req.Description,
	}, img)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Created("Item created successfully", it)
}

func (c *ItemController) Update(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}

	var (
		req itemUpdateRequest
		img *services.Upload
	)
	if isMultipart(cx.R) {
		form, ok := c.parseForm(cx)
		if !ok {
			return
		}
		defer form.RemoveAll()

		errs := map[string]string{}
		req.Name = formOptional(form, "name")
		req.Category = formOptional(form, "category")
		req.Description = formOptional(form, "description")
		req.Weight = formOptionalFloat(form, "weight", errs)
		req.Price = formOptionalFloat(form, "price", errs)
		if !validate(cx, &req, errs) {
			return
		}
		var closeImage func()
		if img, closeImage, ok = c.image(cx, form); !ok {
			return
		}
		defer closeImage()
	} else if !cx.BindJSON(&req) {
		return
	}

	upd := models.ItemUpdate{
		Name:        req.Name,
		Weight:      req.Weight,
		Price:       req.Price,
		Description: req.Description,
	}
	if req.Category != nil {
		cat := models.Category(*req.Category)
		upd.Category = &cat
	}

	it, err := c.service.Update(cx.Context(), p, id, upd, img)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Item updated successfully", it)
}

func (c *ItemController) Destroy(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}

	if err := c.service.Delete(cx.Context(), p, id); err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Item deleted successfully", nil)
}

func (c *ItemController) Own(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	items, err := c.service.ListOwn(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(items)
}

func (c *ItemController) Statuses(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	items, err := c.service.ListStatuses(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(items)
}

// ─── multipart helpers ────────────────────────────────────────────────────────

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func (c *ItemController) parseForm(cx *ctx.Context) (*multipart.Form, bool) {
	cx.R.Body = http.MaxBytesReader(cx.W, cx.R.Body, c.maxUpload)
	if err := cx.R.ParseMultipartForm(c.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			cx.ErrorWithCause(http.StatusRequestEntityTooLarge, "Upload too large",
				"limit is "+strconv.FormatInt(maxErr.Limit, 10)+" bytes")
			return nil, false
		}
		cx.ErrorWithCause(http.StatusBadRequest, "Invalid form data", err.Error())
		return nil, false
	}
	return cx.R.MultipartForm, true
}

// image opens the optional "image" part. The caller closes the returned
// upload once the service has consumed it.
func (c *ItemController) image(cx *ctx.Context, form *multipart.Form) (*services.Upload, func(), bool) {
	files := form.File["image"]
	if len(files) == 0 {
		return nil, func() {}, true
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		cx.ErrorWithCause(http.StatusBadRequest, "Invalid image", err.Error())
		return nil, nil, false
	}
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { f.Close() }, true
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func formOptional(form *multipart.Form, key string) *string {
	if _, ok := form.Value[key]; !ok {
		return nil
	}
	v := formValue(form, key)
	return &v
}

func formFloat(form *multipart.Form, key string, errs map[string]string) float64 {
	if v := formOptionalFloat(form, key, errs); v != nil {
		return *v
	}
	return 0
}

func formOptionalFloat(form *multipart.Form, key string, errs map[string]string) *float64 {
	raw := formOptional(form, key)
	if raw == nil || *raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		errs[key] = "must be a number"
		return nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		errs[key] = "must be a finite number"
		return nil
	}
	return &f
}

// validate merges form parse errors with struct validation errors and writes
// a 422 when there are any.
func validate(cx *ctx.Context, v interface{}, errs map[string]string) bool {
	for k, msg := range bind.Struct(v) {
		if _, seen := errs[k]; !seen {
			errs[k] = msg
		}
	}
	if len(errs) > 0 {
		cx.ValidationError(errs)
		return false
	}
	return true
}

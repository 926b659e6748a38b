package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	texttemplate "text/template"

	"tel_handoff_backend/internal/handoff/service"
	"tel_handoff_backend/internal/handoff/transport"
	"tel_handoff_backend/platform/apperr"
	"tel_handoff_backend/platform/httpkit"
	"tel_handoff_backend/platform/phone"
	"tel_handoff_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	// ExampleLink is shown on the landing page.
	ExampleLink = "tel:+14155238886"

	msgUnresolvable = "Number from the link was probably a landline, or otherwise invalid."
	msgUnavailable  = "Could not prepare the WhatsApp link right now. Please try again."
	msgInvalidQuery = "invalid query parameters"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var registerScript = texttemplate.Must(texttemplate.New("register.js").Parse(
	`if ("registerProtocolHandler" in navigator) {
  try {
    navigator.registerProtocolHandler("tel", "{{ js .HandlerURL }}");
  } catch (err) {
    console.warn("tel: handler registration failed", err);
  }
}
`))

// Options holds the page settings of the handler.
type Options struct {
	PublicBaseURL string
	Title         string
}

// Handler serves the tel: handoff pages and JSON API.
type Handler struct {
	svc  *service.Service
	val  *validator.Validator
	opts Options
}

func New(svc *service.Service, val *validator.Validator, opts Options) *Handler {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Handler{svc: svc, val: val, opts: opts}
}

// HandlerURL is the URL template registered for the tel: scheme.
func (h *Handler) HandlerURL() string {
	return h.opts.PublicBaseURL + "/sendWhatsappTo/%s"
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", gin.H{
		"Title":       h.opts.Title,
		"ExampleLink": template.URL(ExampleLink),
	})
}

// RegisterScript handles GET /register.js
func (h *Handler) RegisterScript(c *gin.Context) {
	var buf bytes.Buffer
	if err := registerScript.Execute(&buf, gin.H{"HandlerURL": h.HandlerURL()}); err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", buf.Bytes())
}

// SendWhatsAppTo handles GET /sendWhatsappTo/*num
func (h *Handler) SendWhatsAppTo(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("num"), "/")

	handoff, err := h.svc.Resolve(c.Request.Context(), service.ResolveInput{
		ClientIP: c.ClientIP(),
		Raw:      raw,
	})
	if errors.Is(err, phone.ErrUnresolvable) {
		h.render(c, http.StatusUnprocessableEntity, "unresolved.html", gin.H{"Title": h.opts.Title, "Message": msgUnresolvable})
		return
	}
	if err != nil {
		_ = c.Error(err)
		h.render(c, http.StatusBadGateway, "unresolved.html", gin.H{"Title": h.opts.Title, "Message": msgUnavailable})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, handoff.WhatsAppURL)
}

// Resolve handles GET /api/v1/handoff/resolve?num=&callingCode=
func (h *Handler) Resolve(c *gin.Context) {
	var req transport.ResolveRequest
	if !h.bindQuery(c, &req) {
		return
	}

	handoff, err := h.svc.Resolve(c.Request.Context(), service.ResolveInput{
		ClientIP:    c.ClientIP(),
		Raw:         req.Num,
		CallingCode: req.CallingCode,
	})
	if httpkit.HandleError(c, mapError(err)) {
		return
	}

	httpkit.OK(c, toResponse(handoff))
}

// QRCode handles GET /api/v1/handoff/qr?num=&callingCode=&size=
func (h *Handler) QRCode(c *gin.Context) {
	var req transport.QRRequest
	if !h.bindQuery(c, &req) {
		return
	}

	png, _, err := h.svc.QRCode(c.Request.Context(), service.ResolveInput{
		ClientIP:    c.ClientIP(),
		Raw:         req.Num,
		CallingCode: req.CallingCode,
	}, req.Size)
	if httpkit.HandleError(c, mapError(err)) {
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuery, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuery, err.Error())
		return false
	}
	return true
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, phone.ErrUnresolvable) {
		return apperr.Unprocessable("number is not a usable mobile number").
			WithOp("handoff.Resolve").
			WithDetails(transport.UnresolvedDetails{Reason: string(phone.ReasonOf(err))})
	}
	return err
}

func toResponse(h service.Handoff) transport.ResolveResponse {
	return transport.ResolveResponse{
		Number:      h.Number.String(),
		WhatsAppURL: h.WhatsAppURL,
		Region:      h.Number.Region(),
		LineType:    h.Number.Line().String(),
		CallingCode: h.CallingCode,
		Source:      h.Source,
	}
}

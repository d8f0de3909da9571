package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/service"
)

type FormHandler struct {
	svc *service.FormService
}

func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

type fieldView struct {
	models.FieldDefinition
	Value string
	Error string
}

type formPage struct {
	Fields []fieldView
	Flash  *flash
}

func newFormPage(values, errs map[string]string, f *flash) formPage {
	fields := make([]fieldView, 0, len(models.CheckinFields))
	for _, def := range models.CheckinFields {
		fields = append(fields, fieldView{
			FieldDefinition: def,
			Value:           values[def.Name],
			Error:           errs[def.Name],
		})
	}
	return formPage{Fields: fields, Flash: f}
}

// Page renders an empty check-in form.
func (h *FormHandler) Page(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "form.html", newFormPage(nil, nil, nil))
}

// Validate checks one field as the guest edits it.
func (h *FormHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string            `json:"field"`
		Value string            `json:"value"`
		Form  map[string]string `json:"form"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Form == nil {
		req.Form = map[string]string{}
	}
	req.Form[req.Field] = req.Value
	writeJSON(w, http.StatusOK, h.svc.ValidateField(req.Field, req.Value, req.Form))
}

// Submit handles the HTML form post. Values are kept when the submission
// is rejected and cleared once it is saved.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		render(w, http.StatusBadRequest, "form.html",
			newFormPage(nil, nil, &flash{Type: FlashDanger, Message: "invalid form data"}))
		return
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}

	_, err := h.svc.Submit(r.Context(), values)
	if err == nil {
		render(w, http.StatusOK, "form.html",
			newFormPage(nil, nil, &flash{Type: FlashSuccess, Message: service.MsgSaved}))
		return
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		render(w, http.StatusUnprocessableEntity, "form.html",
			newFormPage(values, verr.Report.Errors(), &flash{Type: FlashDanger, Message: verr.Error()}))
		return
	}
	render(w, http.StatusInternalServerError, "form.html",
		newFormPage(values, nil, &flash{Type: FlashDanger, Message: service.MsgSaveFailed}))
}

// Create is the JSON flavour of Submit.
func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := readJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	values, err := stringValues(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Submit(r.Context(), values)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  verr.Error(),
				"errors": verr.Report.Errors(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, service.MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// stringValues flattens a JSON object into form values. Scalars keep their
// literal text, null becomes empty.
func stringValues(raw map[string]json.RawMessage) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		text := strings.TrimSpace(string(v))
		switch {
		case text == "null":
			out[k] = ""
		case strings.HasPrefix(text, `"`):
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			out[k] = s
		case strings.HasPrefix(text, "{"), strings.HasPrefix(text, "["):
			return nil, fmt.Errorf("field %s: expected a scalar value", k)
		default:
			out[k] = text
		}
	}
	return out, nil
}

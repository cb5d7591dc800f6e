package handler

import (
	"net/http"

	"github.com/akvora-api/internal/application/certificate"
	"github.com/akvora-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CertificateHandler handles certificate upload and retrieval.
type CertificateHandler struct {
	svc certificate.Service
}

func NewCertificateHandler(svc certificate.Service) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

func (h *CertificateHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.CheckUser(r.Context(), req.AkvoraID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *CertificateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, certificate.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(certificate.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("certificate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing certificate field")
		return
	}
	defer f.Close()

	c, err := h.svc.Upload(r.Context(), certificate.UploadInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		AkvoraID:    r.FormValue("akvoraId"),
		Title:       r.FormValue("title"),
		IssuedBy:    r.FormValue("issuedBy"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CertificateHandler) ListByAkvoraID(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByAkvoraID(r.Context(), chi.URLParam(r, "akvoraId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CertificateHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Mine(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CertificateHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCertificateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Rename(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CertificateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "certificate deleted"})
}

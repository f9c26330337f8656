package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/utils"
)

type CertificateHandler struct {
	BaseHandler
	service services.CertificateService
}

func NewCertificateHandler(service services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// IssueCertificate records a completion certificate
// @Summary Issue certificate
// @Description With application_id the application moves to completed in the same transaction.
// @Tags certificates
// @Accept json
// @Produce json
// @Param request body services.IssueCertificateRequest true "Certificate"
// @Success 201 {object} models.Certificate
// @Failure 409 {object} ErrorResponse "Already issued or application not accepted"
// @Router /certificates [post]
func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	h.LogRequest(c, "Issuing certificate")

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req services.IssueCertificateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	certificate, err := h.service.Issue(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, certificate)
}

// GetCertificate returns a certificate to its student, its issuer or an admin
// @Summary Get certificate
// @Tags certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} models.Certificate
// @Router /certificates/{id} [get]
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "id", "must be a UUID")
		return
	}

	certificate, err := h.service.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

// ListStudentCertificates returns the caller's certificates
// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Success 200 {array} models.Certificate
// @Router /certificates/student [get]
func (h *CertificateHandler) ListStudentCertificates(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	certificates, err := h.service.ListForStudent(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificates)
}

// ListIssuedCertificates returns certificates the calling employer issued
// @Summary List issued certificates
// @Tags certificates
// @Produce json
// @Success 200 {array} models.Certificate
// @Router /certificates/issued [get]
func (h *CertificateHandler) ListIssuedCertificates(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	certificates, err := h.service.ListIssued(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificates)
}

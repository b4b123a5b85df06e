package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"brokerkyc/internal/onboarding"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"
	"brokerkyc/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// maxUploadBytes bounds the whole multipart onboarding submission.
const maxUploadBytes = 20 << 20

type OnboardingHandler struct {
	service  *onboarding.Service
	validate *validator.Validator
	logger   logger.Logger
}

func NewOnboardingHandler(service *onboarding.Service, validate *validator.Validator, log logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		service:  service,
		validate: validate,
		logger:   log,
	}
}

// Onboard accepts a multipart submission: declared_name and opening_deposit
// form values plus the selfie, pan_card, id_front and id_back images.
func (h *OnboardingHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	deposit := decimal.Zero
	if raw := r.FormValue("opening_deposit"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			respondError(h.logger, w, http.StatusBadRequest, "Invalid opening deposit")
			return
		}
		deposit = parsed
	}

	selfie, err := h.formFile(r, "selfie")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Missing selfie image")
		return
	}
	idFront, err := h.formFile(r, "id_front")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Missing id_front image")
		return
	}
	// Supporting documents are optional; missing fields stay empty in the
	// profile.
	panCard, _ := h.formFile(r, "pan_card")
	idBack, _ := h.formFile(r, "id_back")

	req := onboarding.OnboardRequest{
		DeclaredName:   r.FormValue("declared_name"),
		OpeningDeposit: deposit,
		Documents: onboarding.Documents{
			Selfie:  selfie,
			PANCard: panCard,
			IDFront: idFront,
			IDBack:  idBack,
		},
	}

	if errs := h.validate.ValidateStructured(req); errs != nil {
		respondJSON(h.logger, w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
		return
	}

	result, err := h.service.Onboard(r.Context(), req)
	if err != nil {
		switch {
		case pkgerrors.Is(err, pkgerrors.ErrMissingDocument):
			respondError(h.logger, w, http.StatusBadRequest, "Required document missing")
		case pkgerrors.Is(err, pkgerrors.ErrPersistenceUnavailable):
			h.logger.Error("Onboarding failed", map[string]interface{}{"error": err.Error()})
			respondError(h.logger, w, http.StatusServiceUnavailable, "Storage unavailable, retry later")
		default:
			h.logger.Error("Onboarding failed", map[string]interface{}{"error": err.Error()})
			respondError(h.logger, w, http.StatusInternalServerError, "Onboarding could not be completed")
		}
		return
	}

	if !result.Outcome.Accepted {
		respondJSON(h.logger, w, http.StatusUnprocessableEntity, result)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, result)
}

// Renew moves a client's KYC window forward from today.
func (h *OnboardingHandler) Renew(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["client_id"]

	ref := struct {
		ClientID string `validate:"required,client_id"`
	}{ClientID: clientID}
	if errs := h.validate.ValidateStructured(ref); errs != nil {
		respondJSON(h.logger, w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
		return
	}

	profile, err := h.service.RenewKYC(r.Context(), clientID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrClientNotFound) {
			respondError(h.logger, w, http.StatusNotFound, "Client not found")
			return
		}
		if pkgerrors.Is(err, pkgerrors.ErrPersistenceUnavailable) {
			h.logger.Error("KYC renewal failed", map[string]interface{}{
				"client_id": clientID,
				"error":     err.Error(),
			})
			respondError(h.logger, w, http.StatusServiceUnavailable, "Storage unavailable, retry later")
			return
		}
		h.logger.Error("KYC renewal failed", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
		respondError(h.logger, w, http.StatusInternalServerError, "Renewal could not be completed")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, profile)
}

func (h *OnboardingHandler) formFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	return io.ReadAll(file)
}

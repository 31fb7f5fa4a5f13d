package api

import (
	"errors"
	"net/http"

	"fridge/internal/forms"
	"fridge/internal/intake"
)

type IntakeHandler struct {
	donations  *intake.DonationPipeline
	volunteers *intake.VolunteerPipeline
}

func NewIntakeHandler(donations *intake.DonationPipeline, volunteers *intake.VolunteerPipeline) *IntakeHandler {
	return &IntakeHandler{donations: donations, volunteers: volunteers}
}

func (h *IntakeHandler) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	var form forms.DonationForm
	if err := decodeJSON(r.Body, &form); err != nil {
		badRequest(w, err.Error())
		return
	}

	record, err := h.donations.Submit(r.Context(), identityFromRequest(r), form)
	if err != nil {
		writeIntakeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *IntakeHandler) SubmitVolunteer(w http.ResponseWriter, r *http.Request) {
	var form forms.VolunteerForm
	if err := decodeJSON(r.Body, &form); err != nil {
		badRequest(w, err.Error())
		return
	}

	record, err := h.volunteers.Submit(r.Context(), identityFromRequest(r), form)
	if err != nil {
		writeIntakeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func writeIntakeError(w http.ResponseWriter, err error) {
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		writeFieldErrors(w, verr.Fields)
		return
	}
	if errors.Is(err, intake.ErrAlreadyApplied) {
		conflict(w, "You have already volunteered. You can only volunteer once per account.")
		return
	}
	internalError(w)
}

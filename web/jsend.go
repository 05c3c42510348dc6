package web

import (
	"encoding/json"
	"net/http"

	"github.com/netresearch/watchdogd/core"
)

// jsend is the envelope every REST response follows: status is one of
// success/fail/error, with the payload carried in the field matching it.
type jsend struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Reason any    `json:"reasons,omitempty"`
	Msg    string `json:"message,omitempty"`
	Code   int    `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeSuccess sends a JSend success envelope, 200 unless overridden.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, jsend{Status: "success", Data: data})
}

// writeCreated sends a JSend success envelope with 201.
func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, jsend{Status: "success", Data: data})
}

// writeFail sends a JSend fail envelope (400) with validation reasons.
func writeFail(w http.ResponseWriter, reasons any) {
	writeJSON(w, http.StatusBadRequest, jsend{Status: "fail", Reason: reasons})
}

// writeError maps err's core.Kind to a JSend error envelope and status
// code.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindBadRequest:
		status = http.StatusBadRequest
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindDatabase, core.KindInternal:
		status = http.StatusInternalServerError
	}

	envStatus := "error"
	if status == http.StatusBadRequest {
		envStatus = "fail"
	}

	writeJSON(w, status, jsend{Status: envStatus, Msg: err.Error(), Code: status})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.NewBadRequest("malformed request body: %v", err)
	}
	return nil
}

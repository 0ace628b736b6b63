package inspect

import (
	"bytes"
	"encoding/json"
	stdliberrors "errors"
	"io"
	"net/http"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

const maxBodyBytes int64 = 64 << 10

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// respondError sends a structured JSON error response.
func respondError(w http.ResponseWriter, err error) {
	code := rgerrors.GetCode(err)
	response := struct {
		Error   string            `json:"error"`
		Status  int               `json:"status"`
		Code    string            `json:"code"`
		Context map[string]string `json:"context,omitempty"`
	}{
		Error:  err.Error(),
		Status: statusFor(code),
		Code:   string(code),
	}
	if e, ok := rgerrors.As(err); ok && len(e.Context) > 0 {
		response.Context = make(map[string]string, len(e.Context))
		for k, v := range e.Context {
			response.Context[k] = toString(v)
		}
	}
	respondJSON(w, response.Status, response)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// decodeJSONBody decodes a bounded request body. Numbers stay json.Number so
// integers survive exactly.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if stdliberrors.As(err, &maxErr) {
			return rgerrors.Newf(rgerrors.ErrCodeInvalidInput, "request body too large (max %d bytes)", maxBodyBytes)
		}
		return rgerrors.Wrap(err, rgerrors.ErrCodeInvalidInput, "failed to read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return rgerrors.Wrap(err, rgerrors.ErrCodeInvalidInput, "invalid JSON body")
	}
	return nil
}

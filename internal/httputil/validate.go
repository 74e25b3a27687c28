package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Validator is shared by all handlers; validator.Validate caches struct
// metadata and is safe for concurrent use. Field names in errors are the
// json tag names so messages match the wire format.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// maxBodyBytes caps request bodies; habit and record payloads are tiny.
const maxBodyBytes = 64 << 10

// DecodeJSON reads r's body into out and runs struct validation.
// An empty body decodes as {} so all-optional payloads may omit it.
// On failure it writes a 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		LogWarn(r, "failed to decode request body", "error", err)
		BadRequest(w, r, "error decoding request body")
		return false
	}
	if err := Validator.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			BadRequest(w, r, "invalid "+verrs[0].Field())
			return false
		}
		BadRequest(w, r, "invalid request body")
		return false
	}
	return true
}

// IDParam parses the named chi URL param as a positive int64.
// On failure it writes a 400 "invalid <name>" and returns false.
func IDParam(w http.ResponseWriter, r *http.Request, name, field string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, r, "invalid "+field)
		return 0, false
	}
	return id, true
}

package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ParseJSON decodes JSON from the request body into dest. The body size is
// capped; an empty body decodes into the zero value, matching PATCH
// requests that only touch the URL resource.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

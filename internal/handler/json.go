package handler

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/msomdec/passgate/internal/domain"
)

const maxJSONBody = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schemas, compiled once at startup.
var (
	signupSchema        = mustSchema("signup.json")
	loginSchema         = mustSchema("login.json")
	verifyOTPSchema     = mustSchema("verify_otp.json")
	emailOnlySchema     = mustSchema("email_only.json")
	resetPasswordSchema = mustSchema("reset_password.json")
	createWalletSchema  = mustSchema("create_wallet.json")
)

func mustSchema(name string) *gojsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeMessage sends a JSON body holding only a message.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// readJSON validates the request body against schema and decodes it into dst.
// Every failure is an ErrInvalidInput carrying a caller-safe message.
func readJSON(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("%w: could not read request body", domain.ErrInvalidInput)
	}
	if len(body) > maxJSONBody {
		return fmt.Errorf("%w: request body too large", domain.ErrInvalidInput)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: request body is required", domain.ErrInvalidInput)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: request body must be valid JSON", domain.ErrInvalidInput)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, describe(e))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: request body must be valid JSON", domain.ErrInvalidInput)
	}
	return nil
}

func describe(e gojsonschema.ResultError) string {
	if e.Field() == "(root)" {
		return e.Description()
	}
	return e.Field() + ": " + e.Description()
}

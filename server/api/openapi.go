package api

import (
	"encoding/json"
	"net/http"

	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof/gnarkbackend"
)

// Field represents a single input field of a circuit
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "hash", "integer", "bps", "unix"
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

var (
	fieldCommitment       = Field{"commitment", "hash", "SHA-256 commitment to the score", true}
	fieldMinScore         = Field{"minScore", "integer", "Minimum score", true}
	fieldMaxDTIBps        = Field{"maxDtiBps", "bps", "Maximum debt-to-income ratio", true}
	fieldMinOnTimeRateBps = Field{"minOnTimeRateBps", "bps", "Minimum on-time payment share", true}
	fieldMinPayments      = Field{"minPayments", "integer", "Minimum number of repayments", true}
	fieldPoolID           = Field{"poolId", "integer", "Lending pool the proof is bound to", true}
	fieldNonce            = Field{"nonce", "integer", "Commitment nonce at generation", true}
	fieldTimestamp        = Field{"timestamp", "unix", "Generation time", true}

	fieldScore          = Field{"score", "integer", "Committed score (secret)", false}
	fieldSalt           = Field{"salt", "hash", "Commitment salt (secret)", false}
	fieldTotalDebt      = Field{"totalDebt", "integer", "Outstanding debt (secret)", false}
	fieldIncome         = Field{"income", "integer", "Income (secret)", false}
	fieldOnTimePayments = Field{"onTimePayments", "integer", "On-time repayments (secret)", false}
	fieldTotalPayments  = Field{"totalPayments", "integer", "All repayments (secret)", false}
)

// circuitFields lists the inputs of each circuit, public ones in wire order
var circuitFields = map[models.Circuit][]Field{
	models.CircuitScoreThreshold: {
		fieldCommitment, fieldMinScore, fieldPoolID, fieldNonce, fieldTimestamp,
		fieldScore, fieldSalt,
	},
	models.CircuitDTIRatio: {
		fieldCommitment, fieldMaxDTIBps, fieldPoolID, fieldNonce,
		fieldScore, fieldSalt, fieldTotalDebt, fieldIncome,
	},
	models.CircuitPaymentHistory: {
		fieldCommitment, fieldMinOnTimeRateBps, fieldMinPayments, fieldPoolID, fieldNonce,
		fieldScore, fieldSalt, fieldOnTimePayments, fieldTotalPayments,
	},
	models.CircuitCreditworthy: {
		fieldCommitment, fieldMinScore, fieldMaxDTIBps, fieldMinOnTimeRateBps, fieldMinPayments,
		fieldPoolID, fieldNonce, fieldTimestamp,
		fieldScore, fieldSalt, fieldTotalDebt, fieldIncome, fieldOnTimePayments, fieldTotalPayments,
	},
}

// GetPublicFields returns the public inputs of c in wire order
func GetPublicFields(c models.Circuit) []Field {
	var out []Field
	for _, f := range circuitFields[c] {
		if f.IsPublic {
			out = append(out, f)
		}
	}
	return out
}

// GetPrivateFields returns the secret inputs of c
func GetPrivateFields(c models.Circuit) []Field {
	var out []Field
	for _, f := range circuitFields[c] {
		if !f.IsPublic {
			out = append(out, f)
		}
	}
	return out
}

func publicInputNames(c models.Circuit) []string {
	fields := GetPublicFields(c)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func schemaFromFields(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		typ := "integer"
		if f.Type == "hash" {
			typ = "string"
		}
		props[f.Name] = map[string]any{
			"type":        typ,
			"description": f.Description,
		}
	}
	return map[string]any{"type": "object", "properties": props}
}

func operation(summary string, auth bool, responses ...string) map[string]any {
	op := map[string]any{"summary": summary}
	res := map[string]any{}
	for _, code := range responses {
		res[code] = map[string]any{"$ref": "#/components/responses/" + code}
	}
	op["responses"] = res
	if auth {
		op["security"] = []any{map[string]any{"walletJWT": []string{}}}
	}
	return op
}

// GenerateOpenAPISpec describes the HTTP API as an OpenAPI 3 document
func GenerateOpenAPISpec(title, version, baseURL string) ([]byte, error) {
	schemas := map[string]any{
		"Error": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"error":     map[string]any{"type": "string"},
				"code":      map[string]any{"type": "string"},
				"timestamp": map[string]any{"type": "string", "format": "date-time"},
			},
		},
	}
	for _, ci := range gnarkbackend.CircuitList {
		schemas[string(ci.Circuit)+"_public"] = schemaFromFields(GetPublicFields(ci.Circuit))
	}

	responses := map[string]any{}
	for code, desc := range map[string]string{
		"200": "OK", "201": "Created", "204": "No Content", "400": "Invalid request",
		"401": "Missing or invalid token", "403": "Token is for another wallet",
		"404": "Not found", "409": "Commitment or nonce mismatch", "410": "Expired",
		"422": "Predicate not met",
	} {
		responses[code] = map[string]any{"description": desc}
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": version},
		"servers": []any{map[string]any{"url": baseURL}},
		"paths": map[string]any{
			"/health":                  map[string]any{"get": operation("Health", false, "200")},
			"/circuits":                map[string]any{"get": operation("List circuits", false, "200")},
			"/circuits/{circuit}":      map[string]any{"get": operation("Describe a circuit", false, "200", "404")},
			"/pools":                   map[string]any{"get": operation("List lending pools", false, "200")},
			"/wallets/{address}/score": map[string]any{"get": operation("Compute a wallet's score", false, "200", "400")},
			"/wallets/{address}/commitment": map[string]any{
				"post":   operation("Commit to the current score", true, "201", "400", "401", "403"),
				"put":    operation("Rotate the commitment", true, "200", "401", "403", "404"),
				"get":    operation("Active public commitment", true, "200", "401", "403", "404"),
				"delete": operation("Revoke the commitment", true, "204", "401", "403"),
			},
			"/wallets/{address}/prove/{circuit}": map[string]any{
				"post": operation("Generate a proof", true, "200", "400", "401", "403", "404", "409", "422"),
			},
			"/verify/{circuit}": map[string]any{
				"post": operation("Verify a proof", false, "200", "400", "404", "410"),
			},
		},
		"components": map[string]any{
			"schemas":   schemas,
			"responses": responses,
			"securitySchemes": map[string]any{
				"walletJWT": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
	}

	return json.MarshalIndent(spec, "", "  ")
}

// HandleOpenAPI serves the OpenAPI document
func (s *Server) HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	b, err := GenerateOpenAPISpec("PrivateScore API", "1", "/")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to build spec")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

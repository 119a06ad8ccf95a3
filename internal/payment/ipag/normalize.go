package ipag

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/revendahub/revendahub/internal/constants"
)

// NormalizedResponse is the tagged result of parsing a provider reply, which
// may be JSON, JSON with data/retorno wrapper objects, or raw pseudo-XML.
type NormalizedResponse struct {
	Status        string // approved / pending / failed
	TransactionID string
	Message       string
	Code          int
	Fields        map[string]interface{}
}

// transactionIDKeys in resolution priority order.
var transactionIDKeys = []string{"id_transacao", "tid", "codigo_transacao", "id", "num_transacao"}

var (
	xmlTagPattern       = regexp.MustCompile(`<([a-zA-Z_][\w-]*)\s*[^>]*>([^<]*)</\s*[a-zA-Z_][\w-]*\s*>`)
	xmlStatusPattern    = regexp.MustCompile(`<status[^>]*code\s*=\s*"([^"]*)"[^>]*>([^<]*)</status>`)
	xmlTransPattern     = regexp.MustCompile(`<codigo_transacao[^>]*>([^<]*)</codigo_transacao>`)
	xmlPixPattern       = regexp.MustCompile(`<pix[^>]*>([^<]*)</pix>`)
	xmlPixQRCodePattern = regexp.MustCompile(`(?s)<pix[^>]*>.*?<qrcode[^>]*>([^<]*)</qrcode>.*?</pix>`)
)

// Normalize parses a raw provider response into a NormalizedResponse. It is a
// pure function over the response text, independent of transport.
func Normalize(raw []byte) NormalizedResponse {
	fields, ok := parseJSONFields(raw)
	if !ok {
		fields = scrapeXMLFields(string(raw))
	}

	message := resolveMessage(fields)
	code := resolveCode(fields)
	status := constants.PaymentStatusPending
	if isApproved(message, code) {
		status = constants.PaymentStatusApproved
	}

	return NormalizedResponse{
		Status:        status,
		TransactionID: resolveTransactionID(fields),
		Message:       message,
		Code:          code,
		Fields:        fields,
	}
}

// parseJSONFields decodes JSON and shallow-merges the data and retorno
// wrapper objects into the top level; wrapper keys win, applied in order
// data then retorno.
func parseJSONFields(raw []byte) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	for _, wrapper := range []string{"data", "retorno"} {
		if inner, ok := decoded[wrapper].(map[string]interface{}); ok {
			for key, value := range inner {
				decoded[key] = value
			}
		}
	}
	return decoded, true
}

// scrapeXMLFields performs a permissive tag-scraping pass over pseudo-XML.
func scrapeXMLFields(raw string) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, match := range xmlTagPattern.FindAllStringSubmatch(raw, -1) {
		key := strings.ToLower(match[1])
		value := strings.TrimSpace(match[2])
		if value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	if match := xmlStatusPattern.FindStringSubmatch(raw); match != nil {
		if code := strings.TrimSpace(match[1]); code != "" {
			fields["status_code"] = code
		}
		if text := strings.TrimSpace(match[2]); text != "" {
			fields["status"] = text
			fields["mensagem_transacao"] = text
		}
	}
	if match := xmlTransPattern.FindStringSubmatch(raw); match != nil {
		if tid := strings.TrimSpace(match[1]); tid != "" {
			fields["codigo_transacao"] = tid
		}
	}
	if match := xmlPixQRCodePattern.FindStringSubmatch(raw); match != nil {
		if qr := strings.TrimSpace(match[1]); qr != "" {
			fields["pix_qrcode"] = qr
		}
	} else if match := xmlPixPattern.FindStringSubmatch(raw); match != nil {
		if pix := strings.TrimSpace(match[1]); pix != "" {
			fields["pix_code"] = pix
		}
	}
	return fields
}

func resolveMessage(fields map[string]interface{}) string {
	for _, key := range []string{"mensagem_transacao", "message", "mensagem", "status"} {
		if value := messageString(fields[key]); value != "" {
			return value
		}
	}
	return ""
}

// messageString extracts text from either a plain value or a nested status
// object ({"status": {"message": "Aprovado"}}).
func messageString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		for _, key := range []string{"message", "mensagem", "description"} {
			if inner, ok := v[key].(string); ok && strings.TrimSpace(inner) != "" {
				return strings.TrimSpace(inner)
			}
		}
	}
	return ""
}

func resolveCode(fields map[string]interface{}) int {
	for _, key := range []string{"status_code", "code", "codigo"} {
		if code, ok := intField(fields[key]); ok {
			return code
		}
	}
	if status, ok := fields["status"].(map[string]interface{}); ok {
		if code, ok := intField(status["code"]); ok {
			return code
		}
	}
	return 0
}

func intField(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed), true
		}
	}
	return 0, false
}

func resolveTransactionID(fields map[string]interface{}) string {
	for _, key := range transactionIDKeys {
		if tid := stringField(fields, key); tid != "" {
			return tid
		}
	}
	return ""
}

// isApproved applies the approval decision: exact success token, partial
// aprovad/captur match, or provider success codes 5 and 8. Anything else is
// pending, never a hard failure.
func isApproved(message string, code int) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if successMessages[normalized] {
		return true
	}
	if strings.Contains(normalized, "aprovad") || strings.Contains(normalized, "captur") {
		return true
	}
	return code == 5 || code == 8
}

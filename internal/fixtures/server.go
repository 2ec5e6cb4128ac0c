package fixtures

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/internal/jsonx"
)

// EchoHandler is an http.Handler that implements a minimal JSON-RPC server
// for use in tests.
//
// The "echo" method responds with its parameters as the result. The "error"
// method responds with an error having code 123, the message "Error: boom"
// and its parameters as the error data. Any other method responds with a
// "method not found" error. Notifications produce no response.
type EchoHandler struct{}

func (EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := jsonx.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res any

	if v.Kind() == jsonx.Array {
		var batch []courier.Request
		if err := json.Unmarshal(body, &batch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		responses := []any{}
		for _, req := range batch {
			if r, ok := respond(req); ok {
				responses = append(responses, r)
			}
		}
		res = responses
	} else {
		var req courier.Request
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		r, ok := respond(req)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		res = r
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type successResponse struct {
	Version   string          `json:"jsonrpc"`
	RequestID json.RawMessage `json:"id"`
	Result    json.RawMessage `json:"result"`
}

type errorResponse struct {
	Version   string            `json:"jsonrpc"`
	RequestID json.RawMessage   `json:"id"`
	Error     courier.ErrorInfo `json:"error"`
}

// respond returns the response to a single request. ok is false for
// notifications.
func respond(req courier.Request) (_ any, ok bool) {
	if req.IsNotification() {
		return nil, false
	}

	params := req.Parameters
	if len(params) == 0 {
		params = json.RawMessage(`null`)
	}

	switch req.Method {
	case "echo":
		return successResponse{courier.JSONRPCVersion, req.ID, params}, true
	case "error":
		return errorResponse{
			courier.JSONRPCVersion,
			req.ID,
			courier.ErrorInfo{
				Code:    123,
				Message: "Error: boom",
				Data:    req.Parameters,
			},
		}, true
	default:
		return errorResponse{
			courier.JSONRPCVersion,
			req.ID,
			courier.ErrorInfo{
				Code:    courier.MethodNotFoundCode,
				Message: "method not found",
			},
		}, true
	}
}

package stub

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Globetrotter Stub API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Local stand-in for the Globetrotter question and challenge services.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(map[string]string{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getHealthz)

	// POST /quiz/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/quiz/start")
	postStart.SetSummary("Start session")
	postStart.SetDescription("Creates a new quiz session for the caller. Requires Bearer token.")
	postStart.AddRespStructure(startSessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// GET /quiz/random/{sessionID}
	getRandom, _ := r.NewOperationContext(http.MethodGet, "/quiz/random/{sessionID}")
	getRandom.SetSummary("Random question")
	getRandom.SetDescription("Returns the next question for the session. Requires Bearer token.")
	getRandom.AddRespStructure(question{}, openapi.WithHTTPStatus(http.StatusOK))
	getRandom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getRandom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getRandom)

	// POST /quiz/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/quiz/submit")
	postSubmit.SetSummary("Submit answer")
	postSubmit.SetDescription("Grades an answer and returns the authoritative session score. Requires Bearer token.")
	postSubmit.AddReqStructure(submitRequest{})
	postSubmit.AddRespStructure(submitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postSubmit)

	// POST /challenge/create
	postCreate, _ := r.NewOperationContext(http.MethodPost, "/challenge/create")
	postCreate.SetSummary("Create challenge")
	postCreate.SetDescription("Creates an invite from an existing session. Requires Bearer token.")
	postCreate.AddReqStructure(createChallengeRequest{})
	postCreate.AddRespStructure(createChallengeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postCreate)

	// GET /challenge/{link}
	getChallenge, _ := r.NewOperationContext(http.MethodGet, "/challenge/{link}")
	getChallenge.SetSummary("Look up challenge")
	getChallenge.SetDescription("Returns invite metadata including ownership and acceptance flags. Requires Bearer token.")
	getChallenge.AddRespStructure(challengeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getChallenge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getChallenge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getChallenge)

	// POST /challenge/{link}/accept
	postAccept, _ := r.NewOperationContext(http.MethodPost, "/challenge/{link}/accept")
	postAccept.SetSummary("Accept challenge")
	postAccept.SetDescription("Accepts an invite and returns a fresh session id. Requires Bearer token.")
	postAccept.AddRespStructure(acceptChallengeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAccept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAccept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAccept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAccept)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

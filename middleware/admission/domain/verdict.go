package domain

import "time"

// Outcome é o resultado terminal de uma requisição no pipeline.
type Outcome int

const (
	Allowed Outcome = iota
	RateLimited
	Banned
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case RateLimited:
		return "rate_limited"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

type Verdict struct {
	Outcome Outcome
	// Tier e ResetAt só são preenchidos em RateLimited.
	Tier    TierName
	ResetAt time.Time
	// Escalated indica que a violação desta requisição disparou um ban.
	Escalated bool
	// Pending é o consumo provisório de um tier skip-successful.
	// Deve ser liquidado com Settle depois que a requisição terminar.
	Pending *Consumption
}

// ResponseKind é a forma da resposta que o dispatcher pede para a camada HTTP.
type ResponseKind int

const (
	// ResponseNone: a requisição segue para o handler seguinte.
	ResponseNone ResponseKind = iota
	ResponseForbidden
	ResponseTooManyRequests
	ResponseRedirect
)

// RateLimitPayload é o corpo estruturado para chamadas programáticas.
type RateLimitPayload struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
	ResetTime  int64  `json:"resetTime"`
}

// Response descreve a resposta sem depender de net/http.
type Response struct {
	Kind     ResponseKind
	Payload  *RateLimitPayload
	Location string
}

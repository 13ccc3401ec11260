package domain

import "time"

// PaymentStatus values as persisted
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pendiente"
	PaymentCompleted PaymentStatus = "completado"
)

// PaymentRecord is one entry in a gym's payment history
type PaymentRecord struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"clientId"`
	Monto         float64       `json:"monto"`
	FechaPago     time.Time     `json:"fechaPago"`
	MetodoPago    string        `json:"metodoPago"`
	NumeroFactura string        `json:"numeroFactura"`
	Periodo       string        `json:"periodo"` // YYYY-MM
	Estado        PaymentStatus `json:"estado"`
}

// QuotaSettings is the per-gym recurring membership price
type QuotaSettings struct {
	Monto       float64 `json:"monto"`
	Descripcion string  `json:"descripcion"`
}

// PaymentInfo is the billing-screen view for one client
type PaymentInfo struct {
	GymID             string  `json:"gymId,omitempty"`
	Monto             float64 `json:"monto"`
	Descripcion       string  `json:"descripcion"`
	Configured        bool    `json:"configured"`
	IsPaymentUpToDate bool    `json:"isPaymentUpToDate"`
}

// PaymentInput is what the caller supplies to record a payment. ID is optional;
// passing the id of an earlier attempt makes the call a retry.
type PaymentInput struct {
	ID            string    `json:"id,omitempty"`
	Monto         float64   `json:"monto"`
	MetodoPago    string    `json:"metodoPago"`
	NumeroFactura string    `json:"numeroFactura,omitempty"`
	Periodo       string    `json:"periodo,omitempty"`
	FechaPago     time.Time `json:"fechaPago,omitempty"`
}

// PaymentResult reports what ProcessPayment managed to persist
type PaymentResult struct {
	Record      PaymentRecord `json:"record"`
	GymID       string        `json:"gymId"`
	FlagUpdated bool          `json:"flagUpdated"`
	Replayed    bool          `json:"replayed"`
}

// PaymentsSummary is a fold over a gym's payment history
type PaymentsSummary struct {
	TotalRecaudado     float64 `json:"totalRecaudado"`
	PagosPendientes    float64 `json:"pagosPendientes"`
	CantidadPendientes int     `json:"cantidadPendientes"`
	PagosCompletados   int     `json:"pagosCompletados"`
	TotalClientes      int     `json:"totalClientes"`
}

// Summarize folds a payment history into its summary
func Summarize(history []PaymentRecord) PaymentsSummary {
	var s PaymentsSummary
	clients := make(map[string]struct{})
	for _, p := range history {
		clients[p.ClientID] = struct{}{}
		switch p.Estado {
		case PaymentCompleted:
			s.TotalRecaudado += p.Monto
			s.PagosCompletados++
		case PaymentPending:
			s.PagosPendientes += p.Monto
			s.CantidadPendientes++
		}
	}
	s.TotalClientes = len(clients)
	return s
}

// PeriodOf formats the billing period a timestamp falls in
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}

package mode

// Mode is the retrieval path a search ended up taking.
type Mode string

// Search path constants.
const (
	// Vector means only semantic KNN results were returned.
	Vector Mode = "vector"
	// SQL means only structured relational results were returned.
	SQL Mode = "sql"
	// Hybrid means vector results were topped up with SQL results.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Vector || m == SQL || m == Hybrid
}

// Reason explains why the SQL path ran. Empty when it did not.
type Reason string

// Fallback reasons.
const (
	ReasonNone                 Reason = ""
	ReasonNoResidual           Reason = "no_residual"
	ReasonEmbeddingUnavailable Reason = "embedding_unavailable"
	ReasonVectorUnavailable    Reason = "vector_unavailable"
	ReasonInsufficient         Reason = "insufficient_results"
)

package queue

const (
	TypeOccurrenceCount = "occurrence:count"
)

type OccurrenceCountPayload struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
	Word  string `json:"word"`
}

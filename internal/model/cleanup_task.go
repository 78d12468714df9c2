package model

// CleanupTask asks the reconciliation worker to remove all indexed chunks
// for a document whose ingest was aborted or whose compensating delete
// failed in-request.
type CleanupTask struct {
	AccountID  uint   `json:"account_id"`
	DocumentID string `json:"document_id"`
}

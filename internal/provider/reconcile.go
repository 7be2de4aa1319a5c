package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// Reconcile folds a raw server response over local state. Fields the server
// sends win; fields it leaves out keep their local value.
func Reconcile(local models.ProviderService, server json.RawMessage) (models.ProviderService, error) {
	trimmed := bytes.TrimSpace(server)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return local, nil
	}
	localJSON, err := json.Marshal(local)
	if err != nil {
		return local, fmt.Errorf("failed to encode local service: %w", err)
	}
	merged, err := jsonpatch.MergePatch(localJSON, trimmed)
	if err != nil {
		return local, fmt.Errorf("failed to merge service: %w", err)
	}

	var out models.ProviderService
	if err := json.Unmarshal(merged, &out); err != nil {
		return local, fmt.Errorf("failed to decode merged service: %w", err)
	}
	return out, nil
}

// sentStatus reports the status carried by a server response, if any.
func sentStatus(server json.RawMessage) models.ServiceStatus {
	var body struct {
		Status models.ServiceStatus `json:"status"`
	}
	if err := json.Unmarshal(server, &body); err != nil {
		return ""
	}
	return body.Status
}

// ensureHistory appends an entry for svc.Status when the last recorded entry
// is for a different status.
func ensureHistory(svc models.ProviderService, at time.Time) models.ProviderService {
	n := len(svc.StatusHistory)
	if n > 0 && svc.StatusHistory[n-1].ToStatus == svc.Status {
		return svc
	}
	history := make([]models.StatusChange, n, n+1)
	copy(history, svc.StatusHistory)
	svc.StatusHistory = append(history, models.StatusChange{ToStatus: svc.Status, ChangedAt: at})
	return svc
}

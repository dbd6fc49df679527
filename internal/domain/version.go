package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// versionFields are the resource fields whose change means the record should
// be announced again. Host and behavior sub-objects are left out; their
// last-seen timestamps churn on every poll.
var versionFields = []string{
	"modified_timestamp",
	"status",
	"state",
	"fine_score",
	"tags",
	"assigned_to",
	"assigned_to_name",
}

// Version fingerprints the announced state of a record. Resources carrying
// none of versionFields are fingerprinted whole.
func (r Record) Version() string {
	picked := make(map[string]any, len(versionFields))
	for _, f := range versionFields {
		if v, ok := r.Resource[f]; ok {
			picked[f] = v
		}
	}
	var subject any = picked
	if len(picked) == 0 {
		subject = r.Resource
	}

	raw, err := json.Marshal(subject)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:12])
}

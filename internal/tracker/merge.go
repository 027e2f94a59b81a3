package tracker

import (
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
)

// Merge combines the local record with the fields of a remote copy. With no
// remote copy the local record is returned as is. Otherwise local is laid over
// a default record and every field present on the remote replaces the local
// field wholesale (last write wins per field). Histories and counters are not
// merged entry by entry, so concurrent edits on two devices lose one side.
//
// Remote fields that cannot be decoded are skipped and the local value kept.
func Merge(local models.Record, remote *models.Patch) models.Record {
	if remote == nil {
		return local
	}

	// A normalized local record is the default record with every local field
	// laid over it.
	base := local.Normalize()

	merged, skipped := remote.Overlay(base)
	if len(skipped) > 0 {
		logger.Warn("Ignoring malformed remote fields", "fields", skipped)
	}
	if merged.CurrentDate == "" {
		merged.CurrentDate = base.CurrentDate
	}
	return merged
}

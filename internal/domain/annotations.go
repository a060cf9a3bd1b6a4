package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Variant is the visual flavour of an incident update.
type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

func (v Variant) IsValid() bool {
	switch v {
	case VariantInfo, VariantSuccess, VariantWarning, VariantError:
		return true
	}
	return false
}

// IncidentUpdate is an operator-authored note attached to a monitor.
// It is immutable once created; it can only be deleted or archived.
type IncidentUpdate struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Variant   Variant   `json:"variant"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeleteMode selects what happens to an update on deletion.
type DeleteMode string

const (
	// DeletePermanent discards the update.
	DeletePermanent DeleteMode = "permanent"
	// DeleteArchive folds the update into the monitor history as a Log.
	DeleteArchive DeleteMode = "archive"
)

func ParseDeleteMode(s string) (DeleteMode, error) {
	switch DeleteMode(s) {
	case DeletePermanent, DeleteArchive:
		return DeleteMode(s), nil
	case "":
		return DeletePermanent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDeleteMode, s)
}

// NewIncidentUpdate creates an update with a unique id.
func NewIncidentUpdate(content string, variant Variant, now time.Time) (IncidentUpdate, error) {
	if !variant.IsValid() {
		return IncidentUpdate{}, fmt.Errorf("%w: %q", ErrInvalidVariant, variant)
	}
	return IncidentUpdate{
		ID:        uuid.NewString(),
		Content:   content,
		Variant:   variant,
		CreatedAt: now,
	}, nil
}

// ArchiveLog converts an update into a permanent history entry.
func ArchiveLog(u IncidentUpdate) Log {
	t := LogInfo
	switch u.Variant {
	case VariantSuccess:
		t = LogRecovery
	case VariantWarning, VariantError:
		t = LogWarning
	}
	return Log{
		Type:     t,
		Datetime: u.CreatedAt.Unix(),
		Reason:   LogReason{Code: string(u.Variant), Detail: u.Content},
		IsManual: true,
	}
}

// AddAnnotation prepends u to the updates of ref.
func (c *SiteConfig) AddAnnotation(ref MonitorRef, u IncidentUpdate) {
	if c.Annotations == nil {
		c.Annotations = make(map[MonitorRef][]IncidentUpdate)
	}
	list := make([]IncidentUpdate, 0, len(c.Annotations[ref])+1)
	list = append(list, u)
	list = append(list, c.Annotations[ref]...)
	c.Annotations[ref] = list
}

// DeleteAnnotation removes the update with updateID. In archive mode, and only
// for provider monitors, the update is appended to the monitor's custom logs
// and the new Log is returned.
func (c *SiteConfig) DeleteAnnotation(updateID string, mode DeleteMode) (*Log, error) {
	if mode != DeletePermanent && mode != DeleteArchive {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeleteMode, mode)
	}

	for ref, list := range c.Annotations {
		for i, u := range list {
			if u.ID != updateID {
				continue
			}

			rest := make([]IncidentUpdate, 0, len(list)-1)
			rest = append(rest, list[:i]...)
			rest = append(rest, list[i+1:]...)
			if len(rest) == 0 {
				delete(c.Annotations, ref)
			} else {
				c.Annotations[ref] = rest
			}

			if mode != DeleteArchive || !ref.IsReal() {
				return nil, nil
			}

			l := ArchiveLog(u)
			if c.CustomLogs == nil {
				c.CustomLogs = make(map[MonitorRef][]Log)
			}
			logs := make([]Log, 0, len(c.CustomLogs[ref])+1)
			logs = append(logs, c.CustomLogs[ref]...)
			c.CustomLogs[ref] = append(logs, l)
			return &l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAnnotationNotFound, updateID)
}

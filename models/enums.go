package models

// LifecycleState of report-like aggregates. Finalized is a one-way transition.
type LifecycleState string

const (
	LifecycleDraft     LifecycleState = "Draft"
	LifecycleFinalized LifecycleState = "Finalized"
)

// ResourceKind is the role an image plays on its owner.
type ResourceKind string

const (
	ResourceKindOriginal  ResourceKind = "original"
	ResourceKindAnnotated ResourceKind = "annotated"
	ResourceKindSignature ResourceKind = "signature"
)

type EditState string

const (
	EditStateClean     EditState = "Clean"
	EditStateDirty     EditState = "Dirty"
	EditStateDiscarded EditState = "Discarded"
)

type ExitChoice string

const (
	ExitChoiceSave    ExitChoice = "save"
	ExitChoiceDiscard ExitChoice = "discard"
	ExitChoiceCancel  ExitChoice = "cancel"
)

// Document collections, one per aggregate type.
const (
	CollectionExpenses        = "expenses"
	CollectionExternalForms   = "external_ga1_forms"
	CollectionSiteAudits      = "site_audit_reports"
	CollectionMechanicReports = "mechanic_reports"
	CollectionMachines        = "machines"
)

func ValidCollection(c string) bool {
	switch c {
	case CollectionExpenses, CollectionExternalForms, CollectionSiteAudits,
		CollectionMechanicReports, CollectionMachines:
		return true
	}
	return false
}

package models

import (
	"encoding/json"
	"fmt"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/utils"
	"github.com/google/uuid"
)

// DraftSession is one open editor held server-side in redis: the aggregate
// snapshot being mutated plus its dirty-state machine. It is destroyed on
// discard or swapped wholesale for the committed copy on save.
type DraftSession struct {
	SessionID  string          `json:"sessionId"`
	Collection string          `json:"collection"`
	TenantId   string          `json:"tenantId"`
	UserId     int             `json:"userId"`
	Edit       EditSession     `json:"edit"`
	CreatedAt  Millis          `json:"createdAt"`
	Aggregate  json.RawMessage `json:"aggregate"`
}

func NewDraftSession(collection string, tenantId string, userId int, agg Aggregate) (*DraftSession, error) {
	s := &DraftSession{
		SessionID:  uuid.NewString(),
		Collection: collection,
		TenantId:   tenantId,
		UserId:     userId,
		Edit:       NewEditSession(),
		CreatedAt:  NowMillis(),
	}
	if err := s.SetAggregate(agg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DraftSession) SetAggregate(agg Aggregate) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	s.Aggregate = raw
	return nil
}

// DecodeAggregate rebuilds the concrete aggregate from the stored snapshot.
func (s *DraftSession) DecodeAggregate() (Aggregate, error) {
	agg, err := emptyAggregate(s.Collection)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(s.Aggregate, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// NewAggregate builds an empty draft of the collection's type.
func NewAggregate(collection string, tenantId string) (Aggregate, error) {
	switch collection {
	case CollectionExpenses:
		return NewExpense(tenantId), nil
	case CollectionExternalForms:
		return NewExternalGA1Form(tenantId), nil
	case CollectionSiteAudits:
		return NewSiteAuditReport(tenantId), nil
	case CollectionMechanicReports:
		return NewMechanicReport(tenantId), nil
	case CollectionMachines:
		return NewMachine(tenantId), nil
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

func emptyAggregate(collection string) (Aggregate, error) {
	switch collection {
	case CollectionExpenses:
		return &Expense{}, nil
	case CollectionExternalForms:
		return &ExternalGA1Form{}, nil
	case CollectionSiteAudits:
		return &SiteAuditReport{}, nil
	case CollectionMechanicReports:
		return &MechanicReport{}, nil
	case CollectionMachines:
		return &Machine{}, nil
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

// AggregateFromDocument hydrates an aggregate from its persisted document.
func AggregateFromDocument(collection string, id string, doc map[string]any) (Aggregate, error) {
	switch collection {
	case CollectionExpenses:
		return ExpenseFromDocument(id, doc)
	case CollectionExternalForms:
		return ExternalGA1FormFromDocument(id, doc)
	case CollectionSiteAudits:
		return SiteAuditReportFromDocument(id, doc)
	case CollectionMechanicReports:
		return MechanicReportFromDocument(id, doc)
	case CollectionMachines:
		return MachineFromDocument(id, doc)
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

/* redis persistence */

func draftSessionKey(id string) string { return "DraftSession:" + id }

// SaveDraftSession refreshes the session TTL on every save; a session nobody
// touches expires together with its staged bytes.
func SaveDraftSession(s *DraftSession) error {
	return config.SetRedisObject(draftSessionKey(s.SessionID), s, utils.GetSessionLifespan())
}

func LoadDraftSession(id string) (*DraftSession, bool, error) {
	var s DraftSession
	found, err := config.GetRedisObject(draftSessionKey(id), &s)
	if err != nil || !found {
		return nil, found, err
	}
	return &s, true, nil
}

func DeleteDraftSession(id string) error {
	return config.RemoveRedisKey(draftSessionKey(id))
}

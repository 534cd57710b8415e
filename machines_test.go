package main

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/inspect_backend/models"
)

func TestQrAssignmentRequiresCommittedMachine(t *testing.T) {
	// A freshly opened machine draft has no id until its first commit; the
	// registry must never bind a code to an empty machine id.
	m := models.NewMachine("tenant-1")
	if _, err := qrAssignmentPayload("tenant-1", m, "QR-001"); !errors.Is(err, errMachineNotCommitted) {
		t.Fatalf("err = %v, want errMachineNotCommitted", err)
	}
}

func TestQrAssignmentPayload(t *testing.T) {
	m := models.NewMachine("tenant-1")
	m.SetID("mach-1")

	payload, err := qrAssignmentPayload("tenant-1", m, "QR-001")
	if err != nil {
		t.Fatal(err)
	}
	if payload["machineId"] != "mach-1" || payload["tenantId"] != "tenant-1" || payload["qrCode"] != "QR-001" {
		t.Errorf("payload = %v", payload)
	}
}
